// Package session holds per-chat product browsing state. Losing an entry only
// resets the carousel for that chat.
package session

import (
	"context"

	"github.com/google/uuid"
)

type BrowseState struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
	Index      int         `json:"index"`
	MessageID  int         `json:"message_id,omitempty"`
	Query      string      `json:"query,omitempty"`
}

// Current returns the product under the cursor.
func (s *BrowseState) Current() (uuid.UUID, bool) {
	if s == nil || len(s.ProductIDs) == 0 {
		return uuid.Nil, false
	}
	return s.ProductIDs[s.Index], true
}

// Move shifts the cursor by delta and wraps around both ends.
func (s *BrowseState) Move(delta int) {
	n := len(s.ProductIDs)
	if n == 0 {
		s.Index = 0
		return
	}
	s.Index = ((s.Index+delta)%n + n) % n
}

// Seek places the cursor at i, clamped into range.
func (s *BrowseState) Seek(i int) {
	switch n := len(s.ProductIDs); {
	case n == 0 || i < 0:
		s.Index = 0
	case i >= n:
		s.Index = n - 1
	default:
		s.Index = i
	}
}

type Store interface {
	Get(ctx context.Context, chatID string) (*BrowseState, bool, error)
	Put(ctx context.Context, chatID string, st *BrowseState) error
	Delete(ctx context.Context, chatID string) error
}
