package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/Skotchmaster/chat_shop/services/order/internal/events"
)

type sentMessage struct {
	ChatID string
	Text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (n *fakeNotifier) Notify(_ context.Context, chatID, text string) (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return 0, false
	}
	n.sent = append(n.sent, sentMessage{ChatID: chatID, Text: text})
	return 1000 + len(n.sent), true
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if ev, ok := event.(events.OrderEvent); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *fakePublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeFetcher struct {
	data   []byte
	err    error
	before func()
}

func (f *fakeFetcher) Fetch(context.Context, string) (io.ReadCloser, error) {
	if f.before != nil {
		f.before()
	}
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type memProofStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	seq     int
}

func newMemProofStore() *memProofStore {
	return &memProofStore{files: map[string][]byte{}}
}

func (s *memProofStore) Save(_ context.Context, orderNumber string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	ref := "/proofs/receipt-" + orderNumber + "-" + strconv.Itoa(s.seq) + ".jpg"
	s.files[ref] = data
	return ref, nil
}

func (s *memProofStore) Remove(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[ref]; !ok {
		return errors.New("no such proof")
	}
	delete(s.files, ref)
	return nil
}

func (s *memProofStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
