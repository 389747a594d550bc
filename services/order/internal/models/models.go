package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Product is the catalog record. Stock is written only by the order decision path.
type Product struct {
	ID          uuid.UUID       `gorm:"primaryKey"                         json:"id"`
	Name        string          `gorm:"not null"                           json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"        json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	IsAvailable bool            `gorm:"not null"                           json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Buyer is a customer registered through the messaging channel.
type Buyer struct {
	ID        uuid.UUID `gorm:"primaryKey"            json:"id"`
	ChatID    string    `gorm:"uniqueIndex;not null"  json:"chat_id"`
	Name      string    `gorm:"not null"              json:"name"`
	Phone     string    `json:"phone"`
	Gender    Gender    `gorm:"size:8"                json:"gender"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Buyer) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Registered reports whether the buyer finished the contact and department steps.
func (b *Buyer) Registered() bool {
	return b != nil && b.ChatID != "" && b.Gender.Valid()
}

type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                                 json:"id"`
	ChatID    string    `gorm:"uniqueIndex:idx_cart_buyer_product;not null" json:"chat_id"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_cart_buyer_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0"      json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

type Order struct {
	ID              uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;size:32;not null" json:"order_number"`
	BuyerID         uuid.UUID       `gorm:"index;not null"              json:"buyer_id"`
	ChatID          string          `gorm:"index;not null"              json:"chat_id"`
	BuyerName       string          `json:"buyer_name"`
	BuyerPhone      string          `json:"buyer_phone"`
	BuyerGender     Gender          `gorm:"size:8;index"                json:"buyer_gender"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"          json:"items,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status          Status          `gorm:"size:32;index;not null"      json:"status"`
	PaymentProofRef string          `json:"payment_proof_ref,omitempty"`
	AdminNotes      string          `json:"admin_notes,omitempty"`
	ChatMessageID   int             `json:"chat_message_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem freezes the unit price and name at checkout time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"primaryKey"                   json:"id"`
	OrderID     uuid.UUID       `gorm:"index;not null"               json:"order_id"`
	ProductID   uuid.UUID       `gorm:"not null"                     json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `gorm:"not null;check:quantity > 0"  json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"unit_price"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
