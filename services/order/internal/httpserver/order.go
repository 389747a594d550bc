package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	authmw "github.com/Skotchmaster/chat_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/service"
	"github.com/Skotchmaster/chat_shop/services/order/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func scopeOf(c echo.Context) (service.OrderScope, error) {
	role, _ := c.Get(authmw.CtxRole).(string)
	return service.ScopeFor(role)
}

func orderID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed order id", service.ErrValidation)
	}
	return id, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", service.ErrValidation, name)
	}
	return v, nil
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	scope, err := scopeOf(c)
	if err != nil {
		return httpError(l, "list_orders_error", err)
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return httpError(l, "list_orders_error", err)
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return httpError(l, "list_orders_error", err)
	}

	res, err := h.Svc.List(ctx, scope, service.ListParams{
		Status: models.Status(c.QueryParam("status")),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		return httpError(l, "list_orders_error", err)
	}

	return c.JSON(http.StatusOK, transport.OrderListResponse{
		Data: res.Items,
		Meta: transport.NewPageMeta(res.Page, res.Size, res.Total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	scope, err := scopeOf(c)
	if err != nil {
		return httpError(l, "get_order_error", err)
	}
	id, err := orderID(c)
	if err != nil {
		return httpError(l, "get_order_error", err)
	}

	o, err := h.Svc.Get(ctx, scope, id)
	if err != nil {
		return httpError(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

type decision func(ctx context.Context, scope service.OrderScope, id uuid.UUID) (*models.Order, error)

// decide runs one staff decision on the order named by :id.
func (h *OrderHTTP) decide(c echo.Context, handler, event string, fn decision) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	scope, err := scopeOf(c)
	if err != nil {
		return httpError(l, event+"_error", err)
	}
	id, err := orderID(c)
	if err != nil {
		return httpError(l, event+"_error", err)
	}

	o, err := fn(ctx, scope, id)
	if err != nil {
		return httpError(l.With("order_id", id), event+"_error", err)
	}

	l.Info(event+"_success", "order_id", id, "status", o.Status)
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) VerifyOrder(c echo.Context) error {
	return h.decide(c, "order.verify", "verify_order", h.Svc.Verify)
}

func (h *OrderHTTP) RejectOrder(c echo.Context) error {
	var req transport.RejectRequest
	if err := c.Bind(&req); err != nil {
		l := logging.FromContext(c.Request().Context()).With("handler", "order.reject")
		l.Warn("reject_order_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return h.decide(c, "order.reject", "reject_order", func(ctx context.Context, scope service.OrderScope, id uuid.UUID) (*models.Order, error) {
		return h.Svc.Reject(ctx, scope, id, req.AdminNotes)
	})
}

func (h *OrderHTTP) ShipOrder(c echo.Context) error {
	return h.decide(c, "order.ship", "ship_order", h.Svc.Ship)
}

func (h *OrderHTTP) DeliverOrder(c echo.Context) error {
	return h.decide(c, "order.deliver", "deliver_order", h.Svc.Deliver)
}
