package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/events"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/notify"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
)

const defaultDownloadTimeout = 30 * time.Second

type ProofService struct {
	Repo            *repo.GormRepo
	Fetcher         FileFetcher
	Store           ProofStore
	Outbox          Outbox
	DownloadTimeout time.Duration
}

// Ingest attaches an uploaded receipt to the buyer's latest order awaiting payment.
// It returns a nil order and nil error when there is no such order, since the
// image is then unrelated to any purchase.
func (s *ProofService) Ingest(ctx context.Context, chatID, fileRef string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "proof", "chat_id", chatID)

	order, err := s.Repo.LatestByStatus(ctx, chatID, models.StatusAwaitingPayment)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Debug("proof_ignored", "reason", "no order awaiting payment")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l = l.With("order_number", order.OrderNumber)

	ref, err := s.download(ctx, order.OrderNumber, fileRef)
	if err != nil {
		l.Warn("proof_download_error", "error", err)
		s.Outbox.notify(ctx, chatID, notify.ProofRetry())
		return nil, fmt.Errorf("%w: %v", ErrProofDownload, err)
	}

	swapped := false
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		ok, err := tx.CompareAndSetStatus(ctx, order.ID,
			models.StatusAwaitingPayment, models.StatusPaymentReceived,
			map[string]any{"payment_proof_ref": ref})
		if err != nil || !ok {
			return err
		}
		swapped = true
		return tx.ClearCart(ctx, chatID)
	})
	if err != nil || !swapped {
		if rmErr := s.Store.Remove(ref); rmErr != nil {
			l.Warn("proof_cleanup_error", "ref", ref, "error", rmErr)
		}
		if err != nil {
			l.Error("proof_attach_error", "error", err)
			return nil, err
		}
		l.Info("proof_ignored", "reason", "order left awaiting_payment concurrently")
		return nil, nil
	}

	order.Status = models.StatusPaymentReceived
	order.PaymentProofRef = ref
	l.Info("proof_received", "ref", ref)

	s.Outbox.notify(ctx, chatID, notify.ProofReceived(order))
	s.Outbox.publish(ctx, events.PaymentReceived, order)
	return order, nil
}

func (s *ProofService) download(ctx context.Context, orderNumber, fileRef string) (string, error) {
	timeout := s.DownloadTimeout
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := s.Fetcher.Fetch(ctx, fileRef)
	if err != nil {
		return "", err
	}
	defer body.Close()

	return s.Store.Save(ctx, orderNumber, body)
}
