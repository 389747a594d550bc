package httpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/bot"
	"github.com/Skotchmaster/chat_shop/services/order/internal/telegram"
)

type UpdateSink interface {
	Submit(ctx context.Context, u bot.Update) bool
}

// WebhookHTTP receives Telegram updates pushed to /bot/webhook/:secret.
type WebhookHTTP struct {
	Secret string
	Sink   UpdateSink
}

func (h *WebhookHTTP) Receive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bot.webhook")

	if h.Secret == "" || subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(h.Secret)) != 1 {
		l.Warn("webhook_rejected", "status", http.StatusNotFound, "reason", "bad secret")
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	var u tgbotapi.Update
	if err := json.NewDecoder(c.Request().Body).Decode(&u); err != nil {
		l.Warn("webhook_rejected", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if !h.Sink.Submit(ctx, telegram.Decode(u)) {
		l.Warn("webhook_rejected", "status", http.StatusServiceUnavailable, "update_id", u.UpdateID)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "shutting down")
	}
	return c.NoContent(http.StatusOK)
}
