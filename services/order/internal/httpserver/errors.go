package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/chat_shop/services/order/internal/service"
	"github.com/Skotchmaster/chat_shop/services/order/internal/transport"
)

// httpError logs err under event and maps it onto the admin API status codes.
func httpError(l *slog.Logger, event string, err error) error {
	var se *service.StockError
	switch {
	case errors.As(err, &se):
		l.Warn(event, "status", http.StatusBadRequest, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, transport.StockConflict{
			Message:     err.Error(),
			ProductID:   se.ProductID,
			ProductName: se.ProductName,
			Requested:   se.Requested,
			Available:   se.Available,
		})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", http.StatusBadRequest, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "reason", err.Error())
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", http.StatusForbidden, "reason", err.Error())
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
