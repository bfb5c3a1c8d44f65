package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"payandpark/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverSlotLocker prefers the primary locker and switches to the fallback while the
// primary is failing. Busy slots and cancelled contexts are not treated as failures.
type FailoverSlotLocker struct {
	primary  domain.SlotLocker
	fallback domain.SlotLocker
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSlotLocker(primary, fallback domain.SlotLocker, logger *zerolog.Logger) *FailoverSlotLocker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverSlotLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (l *FailoverSlotLocker) Lock(ctx context.Context, slotID int64) (func(), error) {
	if !l.isDown.Load() {
		unlock, err := l.primary.Lock(ctx, slotID)
		if err == nil || !isBackendFailure(err) {
			return unlock, err
		}
		l.logger.Error().Err(err).Int64("slot_id", slotID).Msg("Primary slot locker failed, falling back to memory")
		l.markDown()
		return l.fallback.Lock(ctx, slotID)
	}

	// Try to recover after 1 minute
	if l.recoveryDue() {
		unlock, err := l.primary.Lock(ctx, slotID)
		if err == nil || !isBackendFailure(err) {
			l.isDown.Store(false)
			l.logger.Info().Msg("Primary slot locker recovered")
			return unlock, err
		}
		l.markDown()
	}

	return l.fallback.Lock(ctx, slotID)
}

func (l *FailoverSlotLocker) markDown() {
	l.mu.Lock()
	l.lastCheck = time.Now()
	l.mu.Unlock()
	l.isDown.Store(true)
}

func (l *FailoverSlotLocker) recoveryDue() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Since(l.lastCheck) > time.Minute
}

func isBackendFailure(err error) bool {
	return !errors.Is(err, domain.ErrSlotBusy) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
