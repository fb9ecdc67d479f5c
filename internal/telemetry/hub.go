package telemetry

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/transsync/schedule-api/internal/domain"
)

// subscriberBuffer is how many updates a subscriber may fall behind before
// further updates to it are dropped.
const subscriberBuffer = 32

// Hub fans positions out to subscribers and keeps the latest position per
// vehicle. It is safe for concurrent use.
type Hub struct {
	log *slog.Logger

	mu     sync.RWMutex
	latest map[int64]domain.Position
	subs   map[chan domain.Position]struct{}
	closed bool

	dropped atomic.Uint64
}

// NewHub returns an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:    log,
		latest: make(map[int64]domain.Position),
		subs:   make(map[chan domain.Position]struct{}),
	}
}

// Run publishes everything src produces until ctx is done or the feed ends,
// then closes every subscriber channel.
func (h *Hub) Run(ctx context.Context, src Source) error {
	positions, err := src.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("telemetry.Hub.Run: %w", err)
	}
	h.log.InfoContext(ctx, "telemetry hub started")
	for p := range positions {
		h.Publish(p)
	}
	h.Close()
	h.log.InfoContext(ctx, "telemetry hub stopped", "dropped", h.Dropped())
	return nil
}

// Close closes every subscriber channel. Later subscribers receive an
// already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// Publish records p and offers it to every subscriber. A subscriber whose
// buffer is full misses the update.
func (h *Hub) Publish(p domain.Position) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.latest[p.VehicleID]; ok && p.RecordedAt.Before(prev.RecordedAt) {
		return
	}
	h.latest[p.VehicleID] = p
	for ch := range h.subs {
		select {
		case ch <- p:
		default:
			h.dropped.Add(1)
		}
	}
}

// Latest returns the most recent position of every vehicle seen so far,
// ordered by vehicle id.
func (h *Hub) Latest() []domain.Position {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot()
}

// snapshot copies latest in vehicle id order. h.mu must be held.
func (h *Hub) snapshot() []domain.Position {
	out := make([]domain.Position, 0, len(h.latest))
	for _, p := range h.latest {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Position) int { return cmp.Compare(a.VehicleID, b.VehicleID) })
	return out
}

// Subscribe registers a new subscriber and returns the latest positions as
// of registration. Every update on the channel was published after that
// snapshot, so a position is never seen twice. The caller must call cancel
// when done; cancel closes the channel and may be called more than once.
func (h *Hub) Subscribe() (latest []domain.Position, updates <-chan domain.Position, cancel func()) {
	ch := make(chan domain.Position, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	latest = h.snapshot()
	if h.closed {
		close(ch)
		return latest, ch, func() {}
	}
	h.subs[ch] = struct{}{}

	return latest, ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many updates were dropped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
