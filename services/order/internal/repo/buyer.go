package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

func (r *GormRepo) GetBuyer(ctx context.Context, chatID string) (*models.Buyer, error) {
	var b models.Buyer
	if err := r.DB.WithContext(ctx).Where("chat_id = ?", chatID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// UpsertBuyer creates the buyer or refreshes name and phone for an existing chat id.
// Gender is left untouched on conflict.
func (r *GormRepo) UpsertBuyer(ctx context.Context, b *models.Buyer) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "updated_at"}),
	}).Create(b).Error
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Where("chat_id = ?", b.ChatID).First(b).Error
}

func (r *GormRepo) SetBuyerGender(ctx context.Context, chatID string, g models.Gender) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Buyer{}).
		Where("chat_id = ?", chatID).
		Update("gender", g)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) DeleteBuyer(ctx context.Context, chatID string) (bool, error) {
	res := r.DB.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&models.Buyer{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
