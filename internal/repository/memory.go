package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payandpark/internal/domain"
)

// MemorySlotLocker keeps one buffered channel per slot as a mutex that respects ctx.
type MemorySlotLocker struct {
	mu    sync.Mutex
	slots map[int64]chan struct{}
	wait  time.Duration
}

func NewMemorySlotLocker(wait time.Duration) *MemorySlotLocker {
	return &MemorySlotLocker{
		slots: make(map[int64]chan struct{}),
		wait:  wait,
	}
}

func (l *MemorySlotLocker) slot(slotID int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[slotID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[slotID] = ch
	}
	return ch
}

func (l *MemorySlotLocker) Lock(ctx context.Context, slotID int64) (func(), error) {
	ch := l.slot(slotID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-timer.C:
		return nil, fmt.Errorf("parking slot %d: %w", slotID, domain.ErrSlotBusy)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
