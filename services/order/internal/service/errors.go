package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 400
	ErrForbidden  = errors.New("forbidden")  // 403
)

var (
	ErrEmptyCart         = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrProfileMissing    = fmt.Errorf("%w: buyer profile is not registered", ErrValidation)
	ErrReasonRequired    = fmt.Errorf("%w: rejection reason is required", ErrValidation)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	ErrInvalidGender     = fmt.Errorf("%w: gender must be MALE or FEMALE", ErrValidation)
	ErrOrderNotFound     = fmt.Errorf("%w: order not found", ErrNotFound)
	ErrProductNotFound   = fmt.Errorf("%w: product not found", ErrNotFound)
	ErrBuyerNotFound     = fmt.Errorf("%w: buyer not found", ErrNotFound)
	ErrOutOfStock        = fmt.Errorf("%w: product is out of stock", ErrConflict)
	ErrStockLimit        = fmt.Errorf("%w: quantity exceeds available stock", ErrConflict)
	ErrAlreadyVerified   = fmt.Errorf("%w: order already verified", ErrConflict)
	ErrAlreadyCancelled  = fmt.Errorf("%w: order already cancelled", ErrConflict)
	ErrTerminalState     = fmt.Errorf("%w: order is already fulfilled", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrConflict)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", ErrConflict)
	ErrOpenOrderExists   = fmt.Errorf("%w: buyer has an order awaiting payment or review", ErrConflict)
	ErrProofDownload     = errors.New("payment proof download failed")
)

// StockError names the line that failed the stock check during verification.
type StockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: %s requested %d, available %d",
		ErrInsufficientStock.Error(), e.ProductName, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
