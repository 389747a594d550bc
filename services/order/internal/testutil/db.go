// Package testutil builds throwaway in-memory stores for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/chat_shop/pkg/db"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
)

// NewRepo opens a private in-memory database with the schema migrated. A single
// connection keeps every statement on the same database and serializes transactions.
func NewRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	gdb, err := db.OpenDialector(context.Background(), sqlite.Open(":memory:"), db.PoolConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

// NewSharedRepo opens a file-backed database reachable over conns connections,
// so statements from different goroutines really interleave.
func NewSharedRepo(t *testing.T, conns int) *repo.GormRepo {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "shop.db") + "?_pragma=busy_timeout(5000)"
	gdb, err := db.OpenDialector(context.Background(), sqlite.Open(dsn), db.PoolConfig{
		MaxOpenConns: conns,
		MaxIdleConns: conns,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func SeedProduct(t *testing.T, r *repo.GormRepo, name, price string, stock int) models.Product {
	t.Helper()

	p := models.Product{
		Name:        name,
		Description: name + " description",
		Category:    "general",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsAvailable: true,
	}
	require.NoError(t, r.CreateProduct(context.Background(), &p))
	return p
}

func SeedBuyer(t *testing.T, r *repo.GormRepo, chatID string, g models.Gender) models.Buyer {
	t.Helper()

	b := models.Buyer{ChatID: chatID, Name: "buyer " + chatID, Phone: "+10000" + chatID, Gender: g}
	require.NoError(t, r.UpsertBuyer(context.Background(), &b))
	return b
}

type Line struct {
	Product models.Product
	Qty     int
}

// SeedOrder inserts an order directly in the given state, bypassing checkout.
func SeedOrder(t *testing.T, r *repo.GormRepo, buyer models.Buyer, status models.Status, lines ...Line) models.Order {
	t.Helper()

	o := models.Order{
		OrderNumber: "ORD-" + uuid.NewString()[:10],
		BuyerID:     buyer.ID,
		ChatID:      buyer.ChatID,
		BuyerName:   buyer.Name,
		BuyerPhone:  buyer.Phone,
		BuyerGender: buyer.Gender,
		Status:      status,
		TotalAmount: decimal.Zero,
	}
	for _, l := range lines {
		item := models.OrderItem{ProductID: l.Product.ID, ProductName: l.Product.Name, Quantity: l.Qty, UnitPrice: l.Product.Price}
		o.Items = append(o.Items, item)
		o.TotalAmount = o.TotalAmount.Add(item.Subtotal())
	}
	require.NoError(t, r.CreateOrder(context.Background(), &o))
	return o
}
