package notify

import (
	"context"
	"time"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
)

// Sender is the raw outbound text channel to a buyer.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) (messageID int, err error)
}

// Dispatcher sends buyer notifications without ever failing the caller.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
}

func NewDispatcher(sender Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sender: sender, timeout: timeout}
}

func (d *Dispatcher) Notify(ctx context.Context, chatID, text string) (int, bool) {
	l := logging.FromContext(ctx).With("component", "notify", "chat_id", chatID)
	if d == nil || d.sender == nil {
		l.Warn("notify_skipped", "reason", "no sender configured")
		return 0, false
	}
	if chatID == "" {
		l.Warn("notify_skipped", "reason", "empty chat id")
		return 0, false
	}

	// A cancelled request must not suppress a notification for a change that is already committed.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	id, err := d.sender.SendText(sendCtx, chatID, text)
	if err != nil {
		l.Warn("notify_failed", "error", err)
		return 0, false
	}
	return id, true
}
