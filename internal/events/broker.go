// Package events fans out ledger changes to live dashboard subscribers.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Change is published after a ledger write commits.
type Change struct {
	StudentID uuid.UUID `json:"student_id"`
	Year      int       `json:"year"`
	Category  string    `json:"category"`
	VoucherNo int64     `json:"voucher_no"`
}

// Broker delivers each Change to every subscriber. A subscriber that has not
// drained its previous change keeps that one; the newer change is dropped,
// since either one triggers the same re-aggregation.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Change
	nextID uint64
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]chan Change)}
}

// Subscribe returns a channel of changes and a cancel func that closes it.
func (b *Broker) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Change, 1)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish never blocks.
func (b *Broker) Publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers is the number of open subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
