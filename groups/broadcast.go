/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package groups

import (
	"sync"

	"github.com/Seednode/secretsanta/metrics"
	"github.com/Seednode/secretsanta/models"
)

const subscriptionBuffer = 4

// Broadcaster fans committed group snapshots out to in-process observers.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[string]map[*Subscription]struct{}
	last    map[string]int64 // newest version published per code
	metrics *metrics.Metrics
}

func NewBroadcaster(m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{
		subs:    make(map[string]map[*Subscription]struct{}),
		last:    make(map[string]int64),
		metrics: m,
	}
}

// Subscription delivers full snapshots of one group on C until Close.
// A subscriber that falls behind only ever misses intermediate snapshots,
// never the newest one.
type Subscription struct {
	C <-chan *models.Group

	c    chan *models.Group
	code string
	b    *Broadcaster
	once sync.Once
}

func (b *Broadcaster) Subscribe(code string) *Subscription {
	c := make(chan *models.Group, subscriptionBuffer)
	s := &Subscription{C: c, c: c, code: code, b: b}

	b.mu.Lock()
	if b.subs[code] == nil {
		b.subs[code] = make(map[*Subscription]struct{})
	}
	b.subs[code][s] = struct{}{}
	b.mu.Unlock()

	b.metrics.Subscribed(1)

	return s
}

// Close stops delivery and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.b

		b.mu.Lock()
		delete(b.subs[s.code], s)
		if len(b.subs[s.code]) == 0 {
			delete(b.subs, s.code)
			delete(b.last, s.code)
		}
		close(s.c)
		b.mu.Unlock()

		b.metrics.Subscribed(-1)
	})
}

// Publish delivers g to every subscriber of g.Code, unless a snapshot at
// least as new was already delivered.
func (b *Broadcaster) Publish(g *models.Group) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[g.Code]
	if len(subs) == 0 {
		return
	}
	if g.Version <= b.last[g.Code] {
		return
	}
	b.last[g.Code] = g.Version

	for s := range subs {
		snap := g.Clone()

		select {
		case s.c <- snap:
			continue
		default:
		}

		// Full: drop the oldest queued snapshot to make room.
		select {
		case <-s.c:
		default:
		}
		select {
		case s.c <- snap:
		default:
		}
	}
}

// Subscribers reports how many observers code has.
func (b *Broadcaster) Subscribers(code string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs[code])
}
