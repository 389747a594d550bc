package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
)

// AccountService manages buyer registration through the messaging channel.
type AccountService struct {
	Repo *repo.GormRepo
}

type Contact struct {
	ChatID    string
	FirstName string
	LastName  string
	Phone     string
}

func (s *AccountService) Register(ctx context.Context, c Contact) (*models.Buyer, error) {
	if c.ChatID == "" {
		return nil, fmt.Errorf("%w: chat id required", ErrValidation)
	}
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = "Buyer " + c.ChatID
	}

	b := &models.Buyer{ChatID: c.ChatID, Name: name, Phone: strings.TrimSpace(c.Phone)}
	if err := s.Repo.UpsertBuyer(ctx, b); err != nil {
		logging.FromContext(ctx).Error("register_buyer_error", "svc", "account", "chat_id", c.ChatID, "error", err)
		return nil, err
	}
	return b, nil
}

func (s *AccountService) SetGender(ctx context.Context, chatID string, g models.Gender) error {
	if !g.Valid() {
		return ErrInvalidGender
	}
	ok, err := s.Repo.SetBuyerGender(ctx, chatID, g)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBuyerNotFound
	}
	return nil
}

func (s *AccountService) Get(ctx context.Context, chatID string) (*models.Buyer, error) {
	b, err := s.Repo.GetBuyer(ctx, chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBuyerNotFound
	}
	return b, err
}

// DeleteProfile removes the buyer and their cart. Orders stay for accounting.
// Deletion is refused while an order still awaits payment or review.
func (s *AccountService) DeleteProfile(ctx context.Context, chatID string) error {
	return s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		open, err := tx.CountOpenOrdersByChat(ctx, chatID)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrOpenOrderExists
		}
		if err := tx.ClearCart(ctx, chatID); err != nil {
			return err
		}
		deleted, err := tx.DeleteBuyer(ctx, chatID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrBuyerNotFound
		}
		return nil
	})
}
