package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/chat_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/chat_shop/pkg/middleware/csrf"
	"github.com/Skotchmaster/chat_shop/services/order/internal/service"
)

type Deps struct {
	OrderHandler   *OrderHTTP
	Webhook        *WebhookHTTP
	JWTSecret      []byte
	AuthClient     authmw.Refresher
	ProofDir       string
	ProofURLPrefix string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := authmw.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)
	staff := authMW.RequireRoles(service.StaffRoles...)

	orders := e.Group("/orders", csrf.Middleware(csrf.DefaultConfig()), staff)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/verify/:id", d.OrderHandler.VerifyOrder)
	orders.PATCH("/reject/:id", d.OrderHandler.RejectOrder)
	orders.PATCH("/ship/:id", d.OrderHandler.ShipOrder)
	orders.PATCH("/deliver/:id", d.OrderHandler.DeliverOrder)

	if d.ProofDir != "" && d.ProofURLPrefix != "" {
		proofs := e.Group(d.ProofURLPrefix, staff)
		proofs.Static("/", d.ProofDir)
	}

	if d.Webhook != nil {
		e.POST("/bot/webhook/:secret", d.Webhook.Receive)
	}
}
