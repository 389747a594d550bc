package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

type Type string

const (
	OrderCreated    Type = "order_created"
	PaymentReceived Type = "payment_received"
	OrderVerified   Type = "order_verified"
	OrderRejected   Type = "order_rejected"
	OrderShipped    Type = "order_shipped"
	OrderDelivered  Type = "order_delivered"
)

type OrderEvent struct {
	Type        Type            `json:"type"`
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	ChatID      string          `json:"chat_id"`
	BuyerGender models.Gender   `json:"buyer_gender,omitempty"`
	Status      models.Status   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AdminNotes  string          `json:"admin_notes,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewOrderEvent(t Type, o *models.Order) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		ChatID:      o.ChatID,
		BuyerGender: o.BuyerGender,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		AdminNotes:  o.AdminNotes,
		OccurredAt:  time.Now().UTC(),
	}
}
