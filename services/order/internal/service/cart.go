package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

// CartLine is one cart entry joined with the live catalog record.
// Product is nil when the product has since been removed from the catalog.
// A line is unavailable when its product is gone or staff hid it; such lines
// count for nothing in the total and are left out at checkout.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
	Product   *models.Product
}

func (l CartLine) Available() bool {
	return l.Product != nil && l.Product.IsAvailable
}

func (l CartLine) Subtotal() decimal.Decimal {
	if !l.Available() {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartView struct {
	Lines []CartLine
	Total decimal.Decimal
}

func (v CartView) Empty() bool {
	return len(v.Lines) == 0
}

// AddItem puts qty units of the product into the buyer's cart. Stock is checked
// but not reserved.
func (s *CartService) AddItem(ctx context.Context, chatID string, productID uuid.UUID, qty int) (*models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart", "chat_id", chatID)

	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product id required", ErrValidation)
	}
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable || product.Stock <= 0 {
		return nil, ErrOutOfStock
	}

	held, err := s.Repo.CartQuantity(ctx, chatID, productID)
	if err != nil {
		return nil, err
	}
	if held+qty > product.Stock {
		l.Info("add_to_cart_rejected", "reason", "stock limit", "product_id", productID, "held", held, "stock", product.Stock)
		return nil, ErrStockLimit
	}

	item := &models.CartItem{ChatID: chatID, ProductID: productID, Quantity: qty}
	if err := s.Repo.AddToCart(ctx, item); err != nil {
		l.Error("add_to_cart_error", "error", err)
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, chatID string, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return fmt.Errorf("%w: product id required", ErrValidation)
	}
	removed, err := s.Repo.RemoveFromCart(ctx, chatID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: product is not in the cart", ErrNotFound)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, chatID string) error {
	return s.Repo.ClearCart(ctx, chatID)
}

func (s *CartService) View(ctx context.Context, chatID string) (*CartView, error) {
	return viewCart(ctx, s.Repo, chatID)
}

func viewCart(ctx context.Context, r *repo.GormRepo, chatID string) (*CartView, error) {
	items, err := r.GetCart(ctx, chatID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := r.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &CartView{Lines: make([]CartLine, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		line := CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := products[it.ProductID]; ok {
			line.Product = &p
		}
		view.Lines = append(view.Lines, line)
		view.Total = view.Total.Add(line.Subtotal())
	}
	return view, nil
}
