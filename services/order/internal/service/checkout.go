package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/events"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/notify"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
)

const orderNumberAttempts = 5

type CheckoutService struct {
	Repo   *repo.GormRepo
	Outbox Outbox
	Bank   notify.BankDetails
}

// Checkout turns the buyer's cart into an order awaiting payment. Prices are
// frozen from the catalog at this moment and no stock is touched.
func (s *CheckoutService) Checkout(ctx context.Context, chatID string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "chat_id", chatID)

	var order *models.Order
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		cart, err := viewCart(ctx, tx, chatID)
		if err != nil {
			return err
		}
		if cart.Empty() {
			return ErrEmptyCart
		}

		buyer, err := tx.GetBuyer(ctx, chatID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileMissing
		}
		if err != nil {
			return err
		}
		if !buyer.Registered() {
			return ErrProfileMissing
		}

		open, err := tx.CountOpenOrders(ctx, buyer.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrOpenOrderExists
		}

		o := &models.Order{
			BuyerID:     buyer.ID,
			ChatID:      buyer.ChatID,
			BuyerName:   buyer.Name,
			BuyerPhone:  buyer.Phone,
			BuyerGender: buyer.Gender,
			Status:      models.StatusAwaitingPayment,
			TotalAmount: decimal.Zero,
		}
		for _, line := range cart.Lines {
			if !line.Available() {
				continue
			}
			item := models.OrderItem{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   line.Product.Price,
			}
			o.Items = append(o.Items, item)
			o.TotalAmount = o.TotalAmount.Add(item.Subtotal())
		}
		if len(o.Items) == 0 {
			return fmt.Errorf("%w: no item in the cart is still available", ErrEmptyCart)
		}

		if o.OrderNumber, err = newOrderNumber(ctx, tx); err != nil {
			return err
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			if errors.Is(err, repo.ErrOpenOrder) {
				return ErrOpenOrderExists
			}
			return err
		}
		if err := tx.ClearCart(ctx, chatID); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) {
			l.Info("checkout_rejected", "reason", err.Error())
		} else {
			l.Error("checkout_error", "error", err)
		}
		return nil, err
	}

	l.Info("checkout_success", "order_number", order.OrderNumber, "total", order.TotalAmount.StringFixed(2))

	if msgID, ok := s.Outbox.notify(ctx, chatID, notify.PaymentInstructions(order, s.Bank)); ok {
		order.ChatMessageID = msgID
		if err := s.Repo.SetChatMessageID(context.WithoutCancel(ctx), order.ID, msgID); err != nil {
			l.Warn("record_message_id_error", "order_number", order.OrderNumber, "error", err)
		}
	}
	s.Outbox.publish(ctx, events.OrderCreated, order)

	return order, nil
}

func newOrderNumber(ctx context.Context, r *repo.GormRepo) (string, error) {
	for range orderNumberAttempts {
		n := "ORD-" + strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
		exists, err := r.OrderNumberExists(ctx, n)
		if err != nil {
			return "", err
		}
		if !exists {
			return n, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique order number after %d attempts", orderNumberAttempts)
}
