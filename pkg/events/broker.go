// Package events broadcasts generation lifecycle events to long-polling
// dashboard clients. Adapted from the teacher's pkg/events connection
// manager: the same "broadcast to anyone watching" shape, trimmed from
// per-channel WebSocket fan-out with Postgres LISTEN/NOTIFY and replay
// catchup down to a single global topic with a bounded in-memory
// backlog — Evo has one evolution loop, not per-session channels, so
// there is nothing to subscribe to but "what happened since I last
// looked".
package events

import (
	"context"
	"sync"
	"time"

	"github.com/evoctl/evo/pkg/database"
)

// backlogSize bounds how many past events a long-poll catchup can
// return; older events are simply gone, the way the teacher's catchup
// caps at catchupLimit and tells overflowing clients to fall back to a
// full reload instead of paginating indefinitely.
const backlogSize = 200

// Event is one generation lifecycle notification.
type Event struct {
	Seq              int64                     `json:"seq"`
	GenerationNumber int64                     `json:"generation_number"`
	TargetName       string                    `json:"target_name"`
	Status           database.GenerationStatus `json:"status"`
	Score            float64                   `json:"score"`
	PublishedAt      time.Time                 `json:"published_at"`
}

// Broker fans out Events to any number of long-polling readers. Safe
// for concurrent use.
type Broker struct {
	mu      sync.Mutex
	backlog []Event
	nextSeq int64
	wake    chan struct{}
}

// NewBroker returns an empty Broker.
func NewBroker() *Broker {
	return &Broker{wake: make(chan struct{})}
}

// Publish appends an event to the backlog, assigning it the next
// sequence number, and wakes any reader blocked in Wait.
func (b *Broker) Publish(evt Event) {
	b.mu.Lock()
	b.nextSeq++
	evt.Seq = b.nextSeq
	if evt.PublishedAt.IsZero() {
		evt.PublishedAt = time.Now()
	}
	b.backlog = append(b.backlog, evt)
	if len(b.backlog) > backlogSize {
		b.backlog = b.backlog[len(b.backlog)-backlogSize:]
	}
	wake := b.wake
	b.wake = make(chan struct{})
	b.mu.Unlock()
	close(wake)
}

// Since returns every retained event with Seq > sinceSeq, and the
// current head sequence number. A sinceSeq older than the retained
// backlog silently returns only what's left — callers that need to
// detect gaps should compare the returned events' Seq values.
func (b *Broker) Since(sinceSeq int64) ([]Event, int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sinceLocked(sinceSeq), b.nextSeq
}

func (b *Broker) sinceLocked(sinceSeq int64) []Event {
	var out []Event
	for _, evt := range b.backlog {
		if evt.Seq > sinceSeq {
			out = append(out, evt)
		}
	}
	return out
}

// Wait blocks until at least one event with Seq > sinceSeq exists, ctx
// is cancelled, or timeout elapses, then returns whatever is available
// (possibly nil). This is the long-poll primitive: a dashboard client
// calls Wait with the last Seq it saw and a bounded timeout, and the
// HTTP handler returns as soon as there's something new or the timeout
// fires, instead of holding a persistent connection open.
func (b *Broker) Wait(ctx context.Context, sinceSeq int64, timeout time.Duration) []Event {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		b.mu.Lock()
		if evts := b.sinceLocked(sinceSeq); len(evts) > 0 {
			b.mu.Unlock()
			return evts
		}
		wake := b.wake
		b.mu.Unlock()

		select {
		case <-wake:
			continue
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			return nil
		}
	}
}
