package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// InTx runs fn against a repo bound to a single transaction. Any error returned
// by fn rolls the whole transaction back.
func (r *GormRepo) InTx(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

const openOrderIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_one_open
	ON orders (buyer_id) WHERE status IN ('awaiting_payment', 'payment_received')`

func (r *GormRepo) Migrate(ctx context.Context) error {
	db := r.DB.WithContext(ctx)
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Buyer{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := db.Exec(openOrderIndex).Error; err != nil {
		return fmt.Errorf("open order index: %w", err)
	}
	return nil
}
