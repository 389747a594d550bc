package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/chat_shop/services/order/internal/events"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/notify"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
	"github.com/Skotchmaster/chat_shop/services/order/internal/testutil"
)

type checkoutFixture struct {
	repo     *repo.GormRepo
	cart     *CartService
	checkout *CheckoutService
	notifier *fakeNotifier
	events   *fakePublisher
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	r := testutil.NewRepo(t)
	n := &fakeNotifier{}
	p := &fakePublisher{}
	return &checkoutFixture{
		repo:     r,
		cart:     &CartService{Repo: r},
		notifier: n,
		events:   p,
		checkout: &CheckoutService{
			Repo:   r,
			Outbox: Outbox{Notifier: n, Events: p, Topic: "order-events"},
			Bank:   notify.BankDetails{BankName: "First Bank", AccountHolder: "Shop", AccountNumber: "1234567890"},
		},
	}
}

func TestCheckout_CreatesOrderAwaitingPayment(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	a := testutil.SeedProduct(t, f.repo, "A", "10.00", 5)
	testutil.SeedBuyer(t, f.repo, "100", models.GenderMale)
	_, err := f.cart.AddItem(ctx, "100", a.ID, 2)
	require.NoError(t, err)

	order, err := f.checkout.Checkout(ctx, "100")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-[0-9A-F]{8}$`), order.OrderNumber)
	assert.Equal(t, models.StatusAwaitingPayment, order.Status)
	assert.True(t, decimal.RequireFromString("20").Equal(order.TotalAmount))
	assert.Equal(t, models.GenderMale, order.BuyerGender)

	stored, err := f.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.NotZero(t, stored.ChatMessageID)

	product, err := f.repo.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, product.Stock)

	view, err := f.cart.View(ctx, "100")
	require.NoError(t, err)
	assert.True(t, view.Empty())

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "100", msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, order.OrderNumber)
	assert.Contains(t, msgs[0].Text, "$20.00")
	assert.Contains(t, msgs[0].Text, "1234567890")

	assert.Equal(t, []events.Type{events.OrderCreated}, f.events.types())
}

func TestCheckout_PriceIsLocked(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	a := testutil.SeedProduct(t, f.repo, "A", "10.00", 5)
	testutil.SeedBuyer(t, f.repo, "101", models.GenderFemale)
	_, err := f.cart.AddItem(ctx, "101", a.ID, 3)
	require.NoError(t, err)

	order, err := f.checkout.Checkout(ctx, "101")
	require.NoError(t, err)

	require.NoError(t, f.repo.DB.Model(&models.Product{}).Where("id = ?", a.ID).
		Update("price", decimal.RequireFromString("99.00")).Error)

	stored, err := f.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("30").Equal(stored.TotalAmount))
	require.Len(t, stored.Items, 1)
	assert.True(t, decimal.RequireFromString("10").Equal(stored.Items[0].UnitPrice))
}

func TestCheckout_SkipsHiddenProducts(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	a := testutil.SeedProduct(t, f.repo, "A", "10.00", 5)
	b := testutil.SeedProduct(t, f.repo, "B", "7.00", 5)
	testutil.SeedBuyer(t, f.repo, "103", models.GenderMale)
	_, err := f.cart.AddItem(ctx, "103", a.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, "103", b.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.repo.DB.Model(&models.Product{}).Where("id = ?", b.ID).Update("is_available", false).Error)

	order, err := f.checkout.Checkout(ctx, "103")
	require.NoError(t, err)

	stored, err := f.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, a.ID, stored.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("10").Equal(stored.TotalAmount))
}

func TestCheckout_AllHiddenIsEmptyCart(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	a := testutil.SeedProduct(t, f.repo, "A", "10.00", 5)
	testutil.SeedBuyer(t, f.repo, "104", models.GenderFemale)
	_, err := f.cart.AddItem(ctx, "104", a.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.repo.DB.Model(&models.Product{}).Where("id = ?", a.ID).Update("is_available", false).Error)

	_, err = f.checkout.Checkout(ctx, "104")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_Failures(t *testing.T) {
	t.Parallel()

	t.Run("empty cart", func(t *testing.T) {
		t.Parallel()
		f := newCheckoutFixture(t)
		testutil.SeedBuyer(t, f.repo, "1", models.GenderMale)

		_, err := f.checkout.Checkout(context.Background(), "1")
		assert.ErrorIs(t, err, ErrEmptyCart)
		assert.Empty(t, f.notifier.messages())
	})

	t.Run("no profile", func(t *testing.T) {
		t.Parallel()
		f := newCheckoutFixture(t)
		a := testutil.SeedProduct(t, f.repo, "A", "1.00", 1)
		_, err := f.cart.AddItem(context.Background(), "2", a.ID, 1)
		require.NoError(t, err)

		_, err = f.checkout.Checkout(context.Background(), "2")
		assert.ErrorIs(t, err, ErrProfileMissing)

		view, err := f.cart.View(context.Background(), "2")
		require.NoError(t, err)
		assert.Len(t, view.Lines, 1, "a failed checkout keeps the cart")
	})

	t.Run("department not chosen", func(t *testing.T) {
		t.Parallel()
		f := newCheckoutFixture(t)
		a := testutil.SeedProduct(t, f.repo, "A", "1.00", 1)
		testutil.SeedBuyer(t, f.repo, "3", "")
		_, err := f.cart.AddItem(context.Background(), "3", a.ID, 1)
		require.NoError(t, err)

		_, err = f.checkout.Checkout(context.Background(), "3")
		assert.ErrorIs(t, err, ErrProfileMissing)
	})

	t.Run("open order exists", func(t *testing.T) {
		t.Parallel()
		f := newCheckoutFixture(t)
		ctx := context.Background()
		a := testutil.SeedProduct(t, f.repo, "A", "1.00", 5)
		testutil.SeedBuyer(t, f.repo, "4", models.GenderMale)

		_, err := f.cart.AddItem(ctx, "4", a.ID, 1)
		require.NoError(t, err)
		_, err = f.checkout.Checkout(ctx, "4")
		require.NoError(t, err)

		_, err = f.cart.AddItem(ctx, "4", a.ID, 1)
		require.NoError(t, err)
		_, err = f.checkout.Checkout(ctx, "4")
		assert.ErrorIs(t, err, ErrOpenOrderExists)
	})

	t.Run("only removed products", func(t *testing.T) {
		t.Parallel()
		f := newCheckoutFixture(t)
		ctx := context.Background()
		a := testutil.SeedProduct(t, f.repo, "A", "1.00", 5)
		testutil.SeedBuyer(t, f.repo, "5", models.GenderMale)
		_, err := f.cart.AddItem(ctx, "5", a.ID, 1)
		require.NoError(t, err)
		require.NoError(t, f.repo.DB.Delete(&models.Product{}, "id = ?", a.ID).Error)

		_, err = f.checkout.Checkout(ctx, "5")
		assert.ErrorIs(t, err, ErrEmptyCart)
	})
}

func TestCheckout_NotificationFailureKeepsOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.notifier.fail = true
	ctx := context.Background()

	a := testutil.SeedProduct(t, f.repo, "A", "2.50", 4)
	testutil.SeedBuyer(t, f.repo, "6", models.GenderFemale)
	_, err := f.cart.AddItem(ctx, "6", a.ID, 2)
	require.NoError(t, err)

	order, err := f.checkout.Checkout(ctx, "6")
	require.NoError(t, err)

	stored, err := f.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingPayment, stored.Status)
	assert.Zero(t, stored.ChatMessageID)
}
