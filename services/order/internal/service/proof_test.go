package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/chat_shop/services/order/internal/events"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/notify"
	"github.com/Skotchmaster/chat_shop/services/order/internal/testutil"
)

func TestProofService_NoOpenOrderIsIgnored(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	n := &fakeNotifier{}
	store := newMemProofStore()
	svc := &ProofService{Repo: r, Fetcher: &fakeFetcher{data: []byte("img")}, Store: store, Outbox: Outbox{Notifier: n}}

	b := testutil.SeedBuyer(t, r, "50", models.GenderMale)
	verified := testutil.SeedOrder(t, r, b, models.StatusVerified)

	order, err := svc.Ingest(context.Background(), "50", "file-1")
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Zero(t, store.count())
	assert.Empty(t, n.messages())

	stored, err := r.GetOrder(context.Background(), verified.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, stored.Status)
	assert.Empty(t, stored.PaymentProofRef)
}

func TestProofService_AttachesProof(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	n := &fakeNotifier{}
	p := &fakePublisher{}
	store := newMemProofStore()
	svc := &ProofService{
		Repo:            r,
		Fetcher:         &fakeFetcher{data: []byte("jpeg-bytes")},
		Store:           store,
		Outbox:          Outbox{Notifier: n, Events: p, Topic: "order-events"},
		DownloadTimeout: time.Second,
	}
	ctx := context.Background()

	a := testutil.SeedProduct(t, r, "A", "10.00", 5)
	b := testutil.SeedBuyer(t, r, "51", models.GenderFemale)
	o := testutil.SeedOrder(t, r, b, models.StatusAwaitingPayment, testutil.Line{Product: a, Qty: 1})
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{ChatID: "51", ProductID: a.ID, Quantity: 1}))

	order, err := svc.Ingest(ctx, "51", "file-2")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, o.ID, order.ID)

	stored, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentReceived, stored.Status)
	assert.Equal(t, order.PaymentProofRef, stored.PaymentProofRef)
	assert.Equal(t, []byte("jpeg-bytes"), store.files[stored.PaymentProofRef])

	cart, err := r.GetCart(ctx, "51")
	require.NoError(t, err)
	assert.Empty(t, cart)

	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.ProofReceived(order), msgs[0].Text)
	assert.Equal(t, []events.Type{events.PaymentReceived}, p.types())

	again, err := svc.Ingest(ctx, "51", "file-3")
	require.NoError(t, err)
	assert.Nil(t, again, "a second photo has no order awaiting payment")
	assert.Equal(t, 1, store.count())
}

func TestProofService_DownloadFailureLeavesOrderUntouched(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	n := &fakeNotifier{}
	store := newMemProofStore()
	svc := &ProofService{
		Repo:    r,
		Fetcher: &fakeFetcher{err: errors.New("connection reset")},
		Store:   store,
		Outbox:  Outbox{Notifier: n},
	}
	ctx := context.Background()

	b := testutil.SeedBuyer(t, r, "52", models.GenderMale)
	o := testutil.SeedOrder(t, r, b, models.StatusAwaitingPayment)

	_, err := svc.Ingest(ctx, "52", "file-4")
	require.ErrorIs(t, err, ErrProofDownload)

	stored, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingPayment, stored.Status)
	assert.Empty(t, stored.PaymentProofRef)
	assert.Zero(t, store.count())

	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.ProofRetry(), msgs[0].Text)

	store.saveErr = errors.New("disk full")
	svc.Fetcher = &fakeFetcher{data: []byte("x")}
	_, err = svc.Ingest(ctx, "52", "file-5")
	require.ErrorIs(t, err, ErrProofDownload)
	assert.Len(t, n.messages(), 2)
}

func TestProofService_LostRaceRemovesFile(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	store := newMemProofStore()
	ctx := context.Background()

	b := testutil.SeedBuyer(t, r, "53", models.GenderMale)
	o := testutil.SeedOrder(t, r, b, models.StatusAwaitingPayment)

	fetcher := &fakeFetcher{
		data: []byte("img"),
		before: func() {
			ok, err := r.CompareAndSetStatus(ctx, o.ID, models.StatusAwaitingPayment, models.StatusCancelled, nil)
			require.NoError(t, err)
			require.True(t, ok)
		},
	}
	svc := &ProofService{Repo: r, Fetcher: fetcher, Store: store, Outbox: Outbox{Notifier: &fakeNotifier{}}}

	order, err := svc.Ingest(ctx, "53", "file-6")
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Zero(t, store.count())

	stored, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Empty(t, stored.PaymentProofRef)
}
