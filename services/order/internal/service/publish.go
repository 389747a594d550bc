package service

import (
	"context"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/events"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

// Outbox bundles the best-effort side channels fired after a state change commits.
type Outbox struct {
	Notifier Notifier
	Events   EventPublisher
	Topic    string
}

func (o Outbox) notify(ctx context.Context, chatID, text string) (int, bool) {
	if o.Notifier == nil {
		return 0, false
	}
	return o.Notifier.Notify(ctx, chatID, text)
}

func (o Outbox) publish(ctx context.Context, t events.Type, order *models.Order) {
	if o.Events == nil || o.Topic == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := o.Events.PublishEvent(ctx, o.Topic, order.OrderNumber, events.NewOrderEvent(t, order)); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error",
			"event", string(t), "order_number", order.OrderNumber, "error", err)
	}
}
