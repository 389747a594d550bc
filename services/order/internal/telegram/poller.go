package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Poll long-polls getUpdates and feeds the pool until ctx ends.
func (c *Client) Poll(ctx context.Context, pool *Pool) error {
	l := logging.FromContext(ctx).With("component", "telegram_poller")
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	cfg.AllowedUpdates = []string{"message", "callback_query"}

	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := c.api.GetUpdates(cfg)
		if err != nil {
			l.Warn("telegram_poll_error", "error", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		for _, u := range updates {
			if u.UpdateID >= cfg.Offset {
				cfg.Offset = u.UpdateID + 1
			}
			if !pool.Submit(ctx, Decode(u)) {
				return nil
			}
		}
	}
}
