package app

import (
	"sync"

	"mathemania-service/internal/domain"
)

// Hub fans leaderboard snapshots out to live subscribers.
type Hub struct {
	// seq orders snapshot builds with their delivery and with new subscriptions.
	seq sync.Mutex

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan domain.Leaderboard]struct{})}
}

// Subscribe registers a subscriber seeded with the initial snapshot.
func (h *Hub) Subscribe(initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscribeWith builds the initial snapshot and registers the subscriber with
// no publish in between, so an update is either in the snapshot or delivered.
func (h *Hub) SubscribeWith(build func() (domain.Leaderboard, error)) (<-chan domain.Leaderboard, func(), error) {
	h.seq.Lock()
	defer h.seq.Unlock()
	lb, err := build()
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := h.Subscribe(lb)
	return ch, cancel, nil
}

// PublishWith builds a snapshot and delivers it before the next build starts,
// so subscribers never receive an older snapshot after a newer one. build is
// skipped when nobody listens.
func (h *Hub) PublishWith(build func() (domain.Leaderboard, error)) error {
	h.seq.Lock()
	defer h.seq.Unlock()
	if h.Len() == 0 {
		return nil
	}
	lb, err := build()
	if err != nil {
		return err
	}
	h.Publish(lb)
	return nil
}

// Publish sends a snapshot to every subscriber without blocking. A slow
// subscriber loses its oldest queued snapshot.
func (h *Hub) Publish(lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- lb:
			default:
			}
		}
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
