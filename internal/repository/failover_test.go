package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"payandpark/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Lock(ctx context.Context, slotID int64) (func(), error) {
	args := m.Called(ctx, slotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

func TestFailoverSlotLocker(t *testing.T) {
	primary := new(mockLocker)
	fallback := new(mockLocker)
	logger := zerolog.New(io.Discard)
	locker := NewFailoverSlotLocker(primary, fallback, &logger)
	ctx := context.Background()
	noop := func() {}

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Lock", ctx, int64(1)).Return(noop, nil).Once()

		unlock, err := locker.Lock(ctx, 1)
		assert.NoError(t, err)
		assert.NotNil(t, unlock)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryBusyIsNotFailure", func(t *testing.T) {
		busy := fmt.Errorf("parking slot 2: %w", domain.ErrSlotBusy)
		primary.On("Lock", ctx, int64(2)).Return(nil, busy).Once()

		_, err := locker.Lock(ctx, 2)
		assert.ErrorIs(t, err, domain.ErrSlotBusy)
		assert.False(t, locker.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertNotCalled(t, "Lock", ctx, int64(2))
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Lock", ctx, int64(3)).Return(nil, errors.New("connection refused")).Once()
		fallback.On("Lock", ctx, int64(3)).Return(noop, nil).Once()

		_, err := locker.Lock(ctx, 3)
		assert.NoError(t, err)
		assert.True(t, locker.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("AlreadyDown", func(t *testing.T) {
		locker.isDown.Store(true)
		locker.lastCheck = time.Now()
		fallback.On("Lock", ctx, int64(4)).Return(noop, nil).Once()

		_, err := locker.Lock(ctx, 4)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
		primary.AssertNotCalled(t, "Lock", ctx, int64(4))
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		locker.isDown.Store(true)
		locker.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("Lock", ctx, int64(5)).Return(noop, nil).Once()

		_, err := locker.Lock(ctx, 5)
		assert.NoError(t, err)
		assert.False(t, locker.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		locker.isDown.Store(true)
		locker.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("Lock", ctx, int64(6)).Return(nil, errors.New("still down")).Once()
		fallback.On("Lock", ctx, int64(6)).Return(noop, nil).Once()

		_, err := locker.Lock(ctx, 6)
		assert.NoError(t, err)
		assert.True(t, locker.isDown.Load())
		assert.WithinDuration(t, time.Now(), locker.lastCheck, time.Second)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
