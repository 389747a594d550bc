package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/events"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/notify"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderService holds the staff decisions on orders. Verify and Reject are the
// only writers of product stock.
type OrderService struct {
	Repo   *repo.GormRepo
	Outbox Outbox
}

type ListParams struct {
	Status models.Status
	Page   int
	Size   int
}

type OrderPage struct {
	Items []models.Order
	Total int64
	Page  int
	Size  int
}

func (s *OrderService) List(ctx context.Context, scope OrderScope, p ListParams) (*OrderPage, error) {
	if p.Status != "" && !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, p.Status)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}

	total, items, err := s.Repo.ListOrders(ctx, scope.filter(repo.OrderFilter{
		Status: p.Status,
		Limit:  p.Size,
		Offset: (p.Page - 1) * p.Size,
	}))
	if err != nil {
		return nil, err
	}
	return &OrderPage{Items: items, Total: total, Page: p.Page, Size: p.Size}, nil
}

func (s *OrderService) Get(ctx context.Context, scope OrderScope, id uuid.UUID) (*models.Order, error) {
	return loadScoped(ctx, s.Repo, scope, id)
}

// Latest returns the buyer's newest order for the chat summary.
func (s *OrderService) Latest(ctx context.Context, chatID string) (*models.Order, error) {
	o, err := s.Repo.LatestOrder(ctx, chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// Verify accepts the payment and takes the ordered units out of stock. Either
// every line is decremented and the order becomes verified, or nothing changes.
func (s *OrderService) Verify(ctx context.Context, scope OrderScope, id uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order", "order_id", id)

	var order *models.Order
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		o, err := loadScoped(ctx, tx, scope, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(o.Status, models.StatusVerified) {
			return decisionConflict(o.Status)
		}

		// Status first: a concurrent verify of this order then loses the swap.
		if err := swapStatus(ctx, tx, o, models.StatusVerified, nil); err != nil {
			return err
		}

		items := slices.Clone(o.Items)
		slices.SortFunc(items, func(a, b models.OrderItem) int {
			return strings.Compare(a.ProductID.String(), b.ProductID.String())
		})
		for _, it := range items {
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return stockError(ctx, tx, it)
			}
		}

		o.Status = models.StatusVerified
		order = o
		return nil
	})
	if err != nil {
		logDecisionError(l, "verify_order", err)
		return nil, err
	}

	l.Info("order_verified", "order_number", order.OrderNumber)
	s.Outbox.notify(ctx, order.ChatID, notify.Verified(order))
	s.Outbox.publish(ctx, events.OrderVerified, order)
	return order, nil
}

// Reject cancels the order with a reason. Stock taken by an earlier verify is returned.
func (s *OrderService) Reject(ctx context.Context, scope OrderScope, id uuid.UUID, reason string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order", "order_id", id)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var order *models.Order
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		o, err := loadScoped(ctx, tx, scope, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(o.Status, models.StatusCancelled) {
			return decisionConflict(o.Status)
		}

		wasVerified := o.Status == models.StatusVerified
		if err := swapStatus(ctx, tx, o, models.StatusCancelled, map[string]any{"admin_notes": reason}); err != nil {
			return err
		}

		if wasVerified {
			for _, it := range o.Items {
				ok, err := tx.IncrementStock(ctx, it.ProductID, it.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					l.Warn("restock_skipped", "reason", "product no longer exists", "product_id", it.ProductID, "quantity", it.Quantity)
				}
			}
		}

		o.Status = models.StatusCancelled
		o.AdminNotes = reason
		order = o
		return nil
	})
	if err != nil {
		logDecisionError(l, "reject_order", err)
		return nil, err
	}

	l.Info("order_rejected", "order_number", order.OrderNumber)
	s.Outbox.notify(ctx, order.ChatID, notify.Rejected(order, reason))
	s.Outbox.publish(ctx, events.OrderRejected, order)
	return order, nil
}

func (s *OrderService) Ship(ctx context.Context, scope OrderScope, id uuid.UUID) (*models.Order, error) {
	return s.advance(ctx, scope, id, models.StatusShipped, events.OrderShipped, notify.Shipped)
}

func (s *OrderService) Deliver(ctx context.Context, scope OrderScope, id uuid.UUID) (*models.Order, error) {
	return s.advance(ctx, scope, id, models.StatusDelivered, events.OrderDelivered, notify.Delivered)
}

func (s *OrderService) advance(ctx context.Context, scope OrderScope, id uuid.UUID, to models.Status,
	ev events.Type, message func(*models.Order) string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order", "order_id", id)

	var order *models.Order
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		o, err := loadScoped(ctx, tx, scope, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(o.Status, to) {
			return decisionConflict(o.Status)
		}
		if err := swapStatus(ctx, tx, o, to, nil); err != nil {
			return err
		}
		o.Status = to
		order = o
		return nil
	})
	if err != nil {
		logDecisionError(l, "advance_order", err)
		return nil, err
	}

	l.Info("order_advanced", "order_number", order.OrderNumber, "status", string(to))
	s.Outbox.notify(ctx, order.ChatID, message(order))
	s.Outbox.publish(ctx, ev, order)
	return order, nil
}

// loadScoped hides orders outside the caller's scope behind a plain not-found.
func loadScoped(ctx context.Context, r *repo.GormRepo, scope OrderScope, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: order id required", ErrValidation)
	}
	o, err := r.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !scope.Allows(o) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func swapStatus(ctx context.Context, tx *repo.GormRepo, o *models.Order, to models.Status, extra map[string]any) error {
	ok, err := tx.CompareAndSetStatus(ctx, o.ID, o.Status, to, extra)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	cur, err := tx.GetOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	return decisionConflict(cur.Status)
}

func decisionConflict(current models.Status) error {
	switch current {
	case models.StatusVerified:
		return ErrAlreadyVerified
	case models.StatusCancelled:
		return ErrAlreadyCancelled
	case models.StatusShipped, models.StatusDelivered:
		return ErrTerminalState
	default:
		return fmt.Errorf("%w: order is %s", ErrInvalidTransition, current)
	}
}

func stockError(ctx context.Context, tx *repo.GormRepo, it models.OrderItem) error {
	se := &StockError{ProductID: it.ProductID, ProductName: it.ProductName, Requested: it.Quantity}
	p, err := tx.GetProduct(ctx, it.ProductID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return err
	default:
		se.ProductName = p.Name
		se.Available = p.Stock
	}
	return se
}

func logDecisionError(l *slog.Logger, event string, err error) {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		l.Info(event+"_rejected", "reason", err.Error())
		return
	}
	l.Error(event+"_error", "error", err)
}
