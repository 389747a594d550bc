package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/service"
)

func (b *Bot) handleCallback(ctx context.Context, u Update) {
	a, err := ParseAction(u.Data)
	if err != nil {
		logging.FromContext(ctx).Warn("bot_callback_rejected", "reason", err.Error())
		b.answer(ctx, u, "This button has expired.", false)
		return
	}
	text, alert := b.dispatch(ctx, u, a)
	b.answer(ctx, u, text, alert)
}

func (b *Bot) dispatch(ctx context.Context, u Update, a Action) (string, bool) {
	switch a.Kind {
	case ActionGenderMale:
		return b.setGender(ctx, u, models.GenderMale)
	case ActionGenderFemale:
		return b.setGender(ctx, u, models.GenderFemale)

	case ActionProductMethod:
		if a.Method == MethodAll {
			b.sendAllProducts(ctx, u)
			return "", false
		}
		b.browseCatalog(ctx, u, 0)
	case ActionProductBrowse:
		b.browseCatalog(ctx, u, a.Index)
	case ActionProductNext:
		b.moveBrowse(ctx, u, 1)
	case ActionProductPrev:
		b.moveBrowse(ctx, u, -1)
	case ActionProductRefresh:
		b.refreshBrowse(ctx, u)
	case ActionProductDetail:
		b.sendDetail(ctx, u, a)

	case ActionAddCart:
		return b.addToCart(ctx, u, a)
	case ActionCartCheckout:
		return b.doCheckout(ctx, u), false
	case ActionCartClear:
		if err := b.Cart.Clear(ctx, u.UserID); err != nil {
			logging.FromContext(ctx).Error("bot_cart_clear_error", "error", err)
			return "Could not clear the cart.", true
		}
		b.show(ctx, u.ChatID, u.MessageID, "Your cart is now empty.", nil)
		return "Cart cleared", false
	case ActionCartRemoveItem:
		if err := b.Cart.RemoveItem(ctx, u.UserID, a.ProductID); err != nil && !errors.Is(err, service.ErrNotFound) {
			logging.FromContext(ctx).Error("bot_cart_remove_error", "error", err)
			return "Could not remove the item.", true
		}
		b.renderCart(ctx, u.ChatID, u.UserID, u.MessageID)
		return "Item removed", false

	case ActionDeleteConfirm:
		return b.deleteProfile(ctx, u)
	case ActionDeleteCancel:
		b.show(ctx, u.ChatID, u.MessageID, "Deletion cancelled.", nil)
		return "Cancelled", false
	}
	return "", false
}

func (b *Bot) setGender(ctx context.Context, u Update, g models.Gender) (string, bool) {
	err := b.Accounts.SetGender(ctx, u.UserID, g)
	if errors.Is(err, service.ErrBuyerNotFound) {
		b.reply(ctx, u.ChatID, "Please register first with /start.", nil)
		return "", false
	}
	if err != nil {
		logging.FromContext(ctx).Error("bot_gender_error", "error", err)
		return "Registration failed.", true
	}
	buyer, err := b.Accounts.Get(ctx, u.UserID)
	name := "friend"
	if err == nil {
		name = buyer.Name
	}
	text := fmt.Sprintf("Registration complete!\n\nWelcome, %s. Your department is %s.\n\n%s", name, g, helpText)
	b.show(ctx, u.ChatID, u.MessageID, text, nil)
	return "", false
}

func (b *Bot) addToCart(ctx context.Context, u Update, a Action) (string, bool) {
	_, err := b.Cart.AddItem(ctx, u.UserID, a.ProductID, 1)
	switch {
	case err == nil:
		return "Added to cart!", false
	case errors.Is(err, service.ErrOutOfStock), errors.Is(err, service.ErrProductNotFound):
		return "Sorry, this product is out of stock.", true
	case errors.Is(err, service.ErrStockLimit):
		p, perr := b.Catalog.GetProduct(ctx, a.ProductID)
		if perr == nil {
			return fmt.Sprintf("Limit reached. Only %d in stock.", p.Stock), true
		}
		return "Limit reached.", true
	default:
		return "Process failed.", true
	}
}

func (b *Bot) deleteProfile(ctx context.Context, u Update) (string, bool) {
	err := b.Accounts.DeleteProfile(ctx, u.UserID)
	switch {
	case err == nil:
		if b.Sessions != nil {
			_ = b.Sessions.Delete(ctx, u.ChatID)
		}
		b.show(ctx, u.ChatID, u.MessageID, "Your profile has been removed. Goodbye!", nil)
		return "Deleted", false
	case errors.Is(err, service.ErrOpenOrderExists):
		b.show(ctx, u.ChatID, u.MessageID, "You have an order awaiting payment or review. Your profile can be deleted once it is resolved.", nil)
		return "Not deleted", false
	case errors.Is(err, service.ErrBuyerNotFound):
		b.show(ctx, u.ChatID, u.MessageID, "There is no profile to delete.", nil)
		return "", false
	default:
		logging.FromContext(ctx).Error("bot_delete_error", "error", err)
		return "Process failed.", true
	}
}
