package telegram

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/Skotchmaster/chat_shop/pkg/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/bot"
)

type Handler func(ctx context.Context, u bot.Update)

const (
	defaultQueueDepth = 256
	handleTimeout     = 2 * time.Minute
)

// Pool runs updates on a fixed set of workers. Updates of one chat always land on
// the same worker, so a buyer's messages are handled in arrival order.
type Pool struct {
	handle Handler
	queues []chan bot.Update

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(workers int, h Handler) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{handle: h, queues: make([]chan bot.Update, workers)}
	for i := range p.queues {
		p.queues[i] = make(chan bot.Update, defaultQueueDepth)
	}
	return p
}

func (p *Pool) Start(ctx context.Context) {
	for i, q := range p.queues {
		p.wg.Add(1)
		go func(id int, q <-chan bot.Update) {
			defer p.wg.Done()
			l := logging.FromContext(ctx).With("component", "bot_worker", "worker", id)
			for u := range q {
				p.run(logging.IntoContext(ctx, l), u)
			}
		}(i, q)
	}
}

func (p *Pool) run(ctx context.Context, u bot.Update) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("bot_update_panic", "chat_id", u.ChatID, "panic", r)
		}
	}()
	// handlers outlive shutdown so a half-processed update can finish
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
	defer cancel()
	p.handle(ctx, u)
}

// Submit queues u and blocks while its worker is saturated. It returns false
// once the pool is closed or ctx ends.
func (p *Pool) Submit(ctx context.Context, u bot.Update) bool {
	if u.Kind == bot.UpdateIgnored {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queues[p.slot(u.ChatID)] <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pool) slot(chatID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(chatID))
	return int(h.Sum32() % uint32(len(p.queues)))
}

// Close stops accepting updates and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for _, q := range p.queues {
			close(q)
		}
	}
	p.mu.Unlock()
	p.wg.Wait()
}
