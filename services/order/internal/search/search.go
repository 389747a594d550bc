package search

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
)

const DefaultLimit = 20

// Searcher resolves a free text query to product ids, best match first.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error)
}

// Database matches names and descriptions with LIKE. It serves when no
// Elasticsearch cluster is configured.
type Database struct {
	Repo *repo.GormRepo
}

func (d *Database) Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	items, err := d.Repo.SearchProducts(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, p := range items {
		if p.Stock > 0 {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}
