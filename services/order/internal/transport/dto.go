package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

type RejectRequest struct {
	AdminNotes string `json:"adminNotes"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type OrderListResponse struct {
	Data []models.Order `json:"data"`
	Meta PageMeta       `json:"meta"`
}

func NewPageMeta(page, size int, total int64) PageMeta {
	return PageMeta{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: (total + int64(size) - 1) / int64(size),
		HasPrev:    page > 1,
		HasNext:    int64(page*size) < total,
	}
}

// StockConflict is the 400 body of a verify that ran out of stock.
type StockConflict struct {
	Message     string    `json:"message"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}
