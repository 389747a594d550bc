package bot

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

type UpdateKind int

const (
	UpdateIgnored UpdateKind = iota
	UpdateCommand
	UpdateText
	UpdateContact
	UpdatePhoto
	UpdateCallback
)

type SharedContact struct {
	UserID    string
	Phone     string
	FirstName string
	LastName  string
}

// Update is one inbound chat event, already stripped of transport detail.
type Update struct {
	Kind      UpdateKind
	ChatID    string
	UserID    string
	FirstName string
	LastName  string

	Command string
	Args    string
	Text    string

	Contact     SharedContact
	PhotoFileID string

	CallbackID string
	MessageID  int
	Data       string
}

type Button struct {
	Text   string
	Action Action
}

type Keyboard [][]Button

// Messenger is the outbound side of the chat channel.
type Messenger interface {
	Send(ctx context.Context, chatID, text string, kb Keyboard) (messageID int, err error)
	Edit(ctx context.Context, chatID string, messageID int, text string, kb Keyboard) error
	AskContact(ctx context.Context, chatID, text, buttonText string) error
	Answer(ctx context.Context, callbackID, text string, alert bool) error
}

// Catalog is the read-only product view the bot needs.
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListAvailableProductIDs(ctx context.Context) ([]uuid.UUID, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}
