package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/notify"
	"github.com/Skotchmaster/chat_shop/services/order/internal/search"
	"github.com/Skotchmaster/chat_shop/services/order/internal/service"
	"github.com/Skotchmaster/chat_shop/services/order/internal/session"
)

// Bot routes chat updates to the cart, checkout, proof and account services.
type Bot struct {
	Messenger Messenger
	Accounts  *service.AccountService
	Cart      *service.CartService
	Checkout  *service.CheckoutService
	Proofs    *service.ProofService
	Orders    *service.OrderService
	Catalog   Catalog
	Search    search.Searcher
	Sessions  session.Store
}

// Handle processes one update. Errors are reported to the buyer and logged,
// never returned, so one bad update cannot stall the loop.
func (b *Bot) Handle(ctx context.Context, u Update) {
	l := logging.FromContext(ctx).With("component", "bot", "chat_id", u.ChatID)
	ctx = logging.IntoContext(ctx, l)

	switch u.Kind {
	case UpdateCommand:
		b.handleCommand(ctx, u)
	case UpdateContact:
		b.handleContact(ctx, u)
	case UpdatePhoto:
		b.handlePhoto(ctx, u)
	case UpdateCallback:
		b.handleCallback(ctx, u)
	case UpdateText:
		b.reply(ctx, u.ChatID, helpText, nil)
	}
}

func (b *Bot) reply(ctx context.Context, chatID, text string, kb Keyboard) int {
	id, err := b.Messenger.Send(ctx, chatID, text, kb)
	if err != nil {
		logging.FromContext(ctx).Warn("bot_send_error", "error", err)
	}
	return id
}

// show edits messageID in place when possible and falls back to a new message.
func (b *Bot) show(ctx context.Context, chatID string, messageID int, text string, kb Keyboard) int {
	if messageID > 0 {
		err := b.Messenger.Edit(ctx, chatID, messageID, text, kb)
		if err == nil {
			return messageID
		}
		logging.FromContext(ctx).Debug("bot_edit_error", "error", err)
	}
	return b.reply(ctx, chatID, text, kb)
}

func (b *Bot) answer(ctx context.Context, u Update, text string, alert bool) {
	if u.CallbackID == "" {
		return
	}
	if err := b.Messenger.Answer(ctx, u.CallbackID, text, alert); err != nil {
		logging.FromContext(ctx).Warn("bot_answer_error", "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, u Update) {
	switch u.Command {
	case "start":
		b.cmdStart(ctx, u)
	case "products":
		b.reply(ctx, u.ChatID, "How would you like to see the products?", methodKeyboard())
	case "search":
		b.cmdSearch(ctx, u)
	case "cart":
		b.cmdCart(ctx, u)
	case "checkout":
		b.doCheckout(ctx, u)
	case "order", "status":
		b.cmdOrder(ctx, u)
	case "delete":
		b.reply(ctx, u.ChatID, "Delete your profile and cart? Your past orders are kept for accounting.", deleteKeyboard())
	default:
		b.reply(ctx, u.ChatID, helpText, nil)
	}
}

func (b *Bot) cmdStart(ctx context.Context, u Update) {
	buyer, err := b.Accounts.Get(ctx, u.UserID)
	switch {
	case err == nil && buyer.Registered():
		b.reply(ctx, u.ChatID, "Welcome back, "+buyer.Name+"!\n\n"+helpText, nil)
	case err == nil:
		b.reply(ctx, u.ChatID, "Please choose your department.", genderKeyboard())
	default:
		if !errors.Is(err, service.ErrBuyerNotFound) {
			logging.FromContext(ctx).Error("bot_start_error", "error", err)
		}
		name := strings.TrimSpace(u.FirstName)
		if name == "" {
			name = "there"
		}
		if err := b.Messenger.AskContact(ctx, u.ChatID, "Hello "+name+"!\nWelcome to the store. Please register with your phone number.", "Register with phone number"); err != nil {
			logging.FromContext(ctx).Warn("bot_send_error", "error", err)
		}
	}
}

func (b *Bot) handleContact(ctx context.Context, u Update) {
	if u.Contact.UserID != "" && u.Contact.UserID != u.UserID {
		b.reply(ctx, u.ChatID, "Please share your own contact.", nil)
		return
	}
	first, last := u.Contact.FirstName, u.Contact.LastName
	if first == "" && last == "" {
		first, last = u.FirstName, u.LastName
	}
	_, err := b.Accounts.Register(ctx, service.Contact{
		ChatID:    u.UserID,
		FirstName: first,
		LastName:  last,
		Phone:     u.Contact.Phone,
	})
	if err != nil {
		b.reply(ctx, u.ChatID, "Registration failed. Please try again.", nil)
		return
	}
	b.reply(ctx, u.ChatID, "Thanks! Now choose your department.", genderKeyboard())
}

func (b *Bot) handlePhoto(ctx context.Context, u Update) {
	_, err := b.Proofs.Ingest(ctx, u.UserID, u.PhotoFileID)
	if err == nil || errors.Is(err, service.ErrProofDownload) {
		return
	}
	logging.FromContext(ctx).Error("bot_proof_error", "error", err)
	b.reply(ctx, u.ChatID, "Something went wrong while saving your receipt. Please send it again.", nil)
}

func (b *Bot) cmdCart(ctx context.Context, u Update) {
	b.renderCart(ctx, u.ChatID, u.UserID, 0)
}

func (b *Bot) renderCart(ctx context.Context, chatID, buyer string, messageID int) {
	view, err := b.Cart.View(ctx, buyer)
	if err != nil {
		logging.FromContext(ctx).Error("bot_cart_error", "error", err)
		b.reply(ctx, chatID, "Error loading cart.", nil)
		return
	}
	if view.Empty() {
		b.show(ctx, chatID, messageID, "Your cart is empty.", nil)
		return
	}
	text, kb := cartSummary(view)
	b.show(ctx, chatID, messageID, text, kb)
}

func (b *Bot) cmdOrder(ctx context.Context, u Update) {
	o, err := b.Orders.Latest(ctx, u.UserID)
	if errors.Is(err, service.ErrOrderNotFound) {
		b.reply(ctx, u.ChatID, "You have no orders yet. Start with /products.", nil)
		return
	}
	if err != nil {
		logging.FromContext(ctx).Error("bot_order_error", "error", err)
		b.reply(ctx, u.ChatID, "Error loading your order.", nil)
		return
	}
	b.reply(ctx, u.ChatID, notify.OrderSummary(o), nil)
}

// doCheckout returns the short callback acknowledgement.
func (b *Bot) doCheckout(ctx context.Context, u Update) string {
	_, err := b.Checkout.Checkout(ctx, u.UserID)
	switch {
	case err == nil:
		return "Order created"
	case errors.Is(err, service.ErrEmptyCart):
		b.reply(ctx, u.ChatID, "Your cart is empty.", nil)
	case errors.Is(err, service.ErrProfileMissing):
		b.reply(ctx, u.ChatID, "User profile not found. Register with /start.", nil)
	case errors.Is(err, service.ErrOpenOrderExists):
		b.reply(ctx, u.ChatID, "You already have an order awaiting payment or review. Send your receipt or wait for our decision before ordering again. See /order.", nil)
	default:
		b.reply(ctx, u.ChatID, "An error occurred during checkout.", nil)
	}
	return ""
}
