package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker()
	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	change := Change{StudentID: uuid.New(), Year: 2025, Category: "monthly", VoucherNo: 4}
	b.Publish(change)

	assert.Equal(t, change, <-first)
	assert.Equal(t, change, <-second)
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		b.Publish(Change{VoucherNo: int64(i + 1)})
	}

	got := <-ch
	assert.Equal(t, int64(1), got.VoucherNo)
	select {
	case extra := <-ch:
		t.Fatalf("expected pending changes to be dropped, got %+v", extra)
	default:
	}
}

func TestBroker_Cancel(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers())

	_, open := <-ch
	assert.False(t, open)

	b.Publish(Change{})
}
