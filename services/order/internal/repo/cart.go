package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, chatID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("chat_id = ?", chatID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CartQuantity returns how many units of the product the buyer already holds, 0 if none.
func (r *GormRepo) CartQuantity(ctx context.Context, chatID string, productID uuid.UUID) (int, error) {
	var qty int
	err := r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("chat_id = ? AND product_id = ?", chatID, productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&qty).Error
	return qty, err
}

// AddToCart merges item into an existing line for the same product or creates a new line.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("chat_id = ? AND product_id = ?", item.ChatID, item.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("chat_id = ? AND product_id = ?", item.ChatID, item.ProductID).First(item).Error
		}
		return tx.Create(item).Error
	})
}

// RemoveFromCart drops the whole line. It reports false when there was nothing to remove.
func (r *GormRepo) RemoveFromCart(ctx context.Context, chatID string, productID uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("chat_id = ? AND product_id = ?", chatID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, chatID string) error {
	return r.DB.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&models.CartItem{}).Error
}
