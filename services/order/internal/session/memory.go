package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a process-local store bounded by size and idle TTL.
type Memory struct {
	cache *expirable.LRU[string, BrowseState]
}

func NewMemory(capacity int, ttl time.Duration) *Memory {
	if capacity <= 0 {
		capacity = 10_000
	}
	return &Memory{cache: expirable.NewLRU[string, BrowseState](capacity, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, chatID string) (*BrowseState, bool, error) {
	st, ok := m.cache.Get(chatID)
	if !ok {
		return nil, false, nil
	}
	st.ProductIDs = append(st.ProductIDs[:0:0], st.ProductIDs...)
	return &st, true, nil
}

func (m *Memory) Put(_ context.Context, chatID string, st *BrowseState) error {
	cp := *st
	cp.ProductIDs = append(st.ProductIDs[:0:0], st.ProductIDs...)
	m.cache.Add(chatID, cp)
	return nil
}

func (m *Memory) Delete(_ context.Context, chatID string) error {
	m.cache.Remove(chatID)
	return nil
}
