package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

// ErrOpenOrder is returned when the one-open-order-per-buyer index rejects an insert.
var ErrOpenOrder = errors.New("buyer already has an open order")

type OrderFilter struct {
	// Gender limits the listing to one department. Empty means every order.
	Gender models.Gender
	Status models.Status
	ChatID string
	Limit  int
	Offset int
}

func (f OrderFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Gender != "" {
		q = q.Where("buyer_gender = ?", f.Gender)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ChatID != "" {
		q = q.Where("chat_id = ?", f.ChatID)
	}
	return q
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	err := r.DB.WithContext(ctx).Create(order).Error
	if isUniqueViolation(err) {
		return ErrOpenOrder
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("order_number = ?", number).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListOrders returns the newest orders first together with the total matching count.
func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) (int64, []models.Order, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	q := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// LatestByStatus finds the buyer's most recent order in the given state.
func (r *GormRepo) LatestByStatus(ctx context.Context, chatID string, status models.Status) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("chat_id = ? AND status = ?", chatID, status).
		Order("created_at DESC").
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// LatestOrder returns the buyer's most recent order regardless of state.
func (r *GormRepo) LatestOrder(ctx context.Context, chatID string) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) CountOpenOrders(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("buyer_id = ? AND status IN ?", buyerID, models.OpenStatuses).
		Count(&n).Error
	return n, err
}

func (r *GormRepo) CountOpenOrdersByChat(ctx context.Context, chatID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("chat_id = ? AND status IN ?", chatID, models.OpenStatuses).
		Count(&n).Error
	return n, err
}

// CompareAndSetStatus moves the order from one state to another together with any
// extra columns. It reports false when the stored state no longer equals from.
func (r *GormRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.Status, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) SetChatMessageID(ctx context.Context, id uuid.UUID, messageID int) error {
	return r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("chat_message_id", messageID).Error
}
