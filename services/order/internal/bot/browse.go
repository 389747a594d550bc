package bot

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/search"
	"github.com/Skotchmaster/chat_shop/services/order/internal/session"
)

const noProducts = "No products are available right now."

func (b *Bot) sendAllProducts(ctx context.Context, u Update) {
	ids, err := b.Catalog.ListAvailableProductIDs(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("bot_list_products_error", "error", err)
		b.reply(ctx, u.ChatID, "Error loading products.", nil)
		return
	}
	found, err := b.Catalog.GetProducts(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Error("bot_list_products_error", "error", err)
		b.reply(ctx, u.ChatID, "Error loading products.", nil)
		return
	}
	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		b.show(ctx, u.ChatID, u.MessageID, noProducts, nil)
		return
	}
	text, kb := productList(products)
	b.show(ctx, u.ChatID, u.MessageID, text, kb)
}

func (b *Bot) browseCatalog(ctx context.Context, u Update, index int) {
	ids, err := b.Catalog.ListAvailableProductIDs(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("bot_list_products_error", "error", err)
		b.reply(ctx, u.ChatID, "Error loading products.", nil)
		return
	}
	st := &session.BrowseState{ProductIDs: ids}
	st.Seek(index)
	b.showCard(ctx, u.ChatID, u.MessageID, st)
}

func (b *Bot) cmdSearch(ctx context.Context, u Update) {
	q := strings.TrimSpace(u.Args)
	if q == "" {
		b.reply(ctx, u.ChatID, "Usage: /search <text>", nil)
		return
	}
	ids, err := b.Search.Search(ctx, q, search.DefaultLimit)
	if err != nil {
		logging.FromContext(ctx).Error("bot_search_error", "error", err)
		b.reply(ctx, u.ChatID, "Search is unavailable right now.", nil)
		return
	}
	if len(ids) == 0 {
		b.reply(ctx, u.ChatID, "Nothing found for \""+q+"\".", nil)
		return
	}
	b.showCard(ctx, u.ChatID, 0, &session.BrowseState{ProductIDs: ids, Query: q})
}

func (b *Bot) loadState(ctx context.Context, chatID string) *session.BrowseState {
	st, ok, err := b.Sessions.Get(ctx, chatID)
	if err != nil {
		logging.FromContext(ctx).Warn("browse_state_error", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return st
}

func (b *Bot) moveBrowse(ctx context.Context, u Update, delta int) {
	st := b.loadState(ctx, u.ChatID)
	if st == nil {
		b.browseCatalog(ctx, u, 0)
		return
	}
	st.Move(delta)
	b.showCard(ctx, u.ChatID, u.MessageID, st)
}

// refreshBrowse reloads the product list and keeps the cursor on the same product
// when it is still listed.
func (b *Bot) refreshBrowse(ctx context.Context, u Update) {
	st := b.loadState(ctx, u.ChatID)
	if st == nil {
		b.browseCatalog(ctx, u, 0)
		return
	}
	current, _ := st.Current()

	var (
		ids []uuid.UUID
		err error
	)
	if st.Query != "" {
		ids, err = b.Search.Search(ctx, st.Query, search.DefaultLimit)
	} else {
		ids, err = b.Catalog.ListAvailableProductIDs(ctx)
	}
	if err != nil {
		logging.FromContext(ctx).Error("bot_refresh_error", "error", err)
		return
	}

	next := &session.BrowseState{ProductIDs: ids, Query: st.Query}
	if i := slices.Index(ids, current); i >= 0 {
		next.Index = i
	} else {
		next.Seek(st.Index)
	}
	b.showCard(ctx, u.ChatID, u.MessageID, next)
}

// showCard renders the product under the cursor, dropping ids whose product has
// disappeared since the list was built.
func (b *Bot) showCard(ctx context.Context, chatID string, messageID int, st *session.BrowseState) {
	for {
		id, ok := st.Current()
		if !ok {
			b.show(ctx, chatID, messageID, noProducts, nil)
			if b.Sessions != nil {
				_ = b.Sessions.Delete(ctx, chatID)
			}
			return
		}
		p, err := b.Catalog.GetProduct(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			st.ProductIDs = slices.Delete(st.ProductIDs, st.Index, st.Index+1)
			st.Seek(st.Index)
			continue
		}
		if err != nil {
			logging.FromContext(ctx).Error("bot_product_error", "error", err)
			b.reply(ctx, chatID, "Error loading product.", nil)
			return
		}

		text, kb := productCard(p, st)
		st.MessageID = b.show(ctx, chatID, messageID, text, kb)
		if err := b.Sessions.Put(ctx, chatID, st); err != nil {
			logging.FromContext(ctx).Warn("browse_state_error", "error", err)
		}
		return
	}
}

func (b *Bot) sendDetail(ctx context.Context, u Update, a Action) {
	p, err := b.Catalog.GetProduct(ctx, a.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b.reply(ctx, u.ChatID, "This product is no longer available.", nil)
		return
	}
	if err != nil {
		logging.FromContext(ctx).Error("bot_product_error", "error", err)
		b.reply(ctx, u.ChatID, "Error loading product.", nil)
		return
	}
	text, kb := productDetail(p)
	b.reply(ctx, u.ChatID, text, kb)
}
