package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"payandpark/internal/database"
	"payandpark/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSlotRepo struct {
	mock.Mock
}

func (m *mockSlotRepo) GetParkingSlot(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSlot), args.Error(1)
}
func (m *mockSlotRepo) UpdateParkingSlotStatus(ctx context.Context, id int64, s models.SlotStatus) error {
	return m.Called(ctx, id, s).Error(0)
}
func (m *mockSlotRepo) UpdateParkingSlotStatusFrom(ctx context.Context, id int64, from, to models.SlotStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}
func (m *mockSlotRepo) CountParkingSlotsByStatus(ctx context.Context) (map[models.SlotStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.SlotStatus]int), args.Error(1)
}

type mockChargeRepo struct {
	mock.Mock
}

func (m *mockChargeRepo) GetCharge(ctx context.Context, id int64) (*models.Charge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Charge), args.Error(1)
}

func TestParkingSlotService(t *testing.T) {
	repo := new(mockSlotRepo)
	logger := zerolog.New(io.Discard)
	svc := NewParkingSlotService(repo, &logger)
	ctx := context.Background()

	t.Run("Fetch", func(t *testing.T) {
		slot := &models.ParkingSlot{ID: 1, Status: models.SlotAvailable}
		repo.On("GetParkingSlot", ctx, int64(1)).Return(slot, nil).Once()
		repo.On("GetParkingSlot", ctx, int64(2)).Return(nil, fmt.Errorf("parking slot 2: %w", database.ErrNotFound)).Once()

		got, err := svc.FetchParkingSlotByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, slot, got)

		_, err = svc.FetchParkingSlotByID(ctx, 2)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Equal(t, "parking slot :: 2 not found", err.Error())
		repo.AssertExpectations(t)
	})

	t.Run("Update", func(t *testing.T) {
		repo.On("UpdateParkingSlotStatus", ctx, int64(1), models.SlotUnavailable).Return(nil).Once()
		repo.On("UpdateParkingSlotStatus", ctx, int64(3), models.SlotBooked).Return(fmt.Errorf("x: %w", database.ErrNotFound)).Once()

		assert.NoError(t, svc.UpdateParkingSlotStatus(ctx, 1, models.SlotUnavailable))
		assert.True(t, IsNotFound(svc.UpdateParkingSlotStatus(ctx, 3, models.SlotBooked)))
		repo.AssertExpectations(t)
	})

	t.Run("Transition", func(t *testing.T) {
		repo.On("UpdateParkingSlotStatusFrom", ctx, int64(1), models.SlotAvailable, models.SlotBooked).Return(nil).Once()
		repo.On("UpdateParkingSlotStatusFrom", ctx, int64(4), models.SlotAvailable, models.SlotBooked).
			Return(fmt.Errorf("parking slot 4 is not AVAILABLE: %w", database.ErrConcurrentModification)).Once()
		repo.On("UpdateParkingSlotStatusFrom", ctx, int64(5), models.SlotAvailable, models.SlotBooked).
			Return(errors.New("disk I/O error")).Once()

		assert.NoError(t, svc.TransitionParkingSlotStatus(ctx, 1, models.SlotAvailable, models.SlotBooked))

		err := svc.TransitionParkingSlotStatus(ctx, 4, models.SlotAvailable, models.SlotBooked)
		assert.True(t, IsClientError(err))

		err = svc.TransitionParkingSlotStatus(ctx, 5, models.SlotAvailable, models.SlotBooked)
		assert.False(t, IsClientError(err))
		assert.False(t, IsNotFound(err))
		repo.AssertExpectations(t)
	})

	t.Run("Count", func(t *testing.T) {
		counts := map[models.SlotStatus]int{models.SlotAvailable: 2}
		repo.On("CountParkingSlotsByStatus", ctx).Return(counts, nil).Once()

		got, err := svc.CountSlotsByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, counts, got)
	})
}

func TestChargingService(t *testing.T) {
	repo := new(mockChargeRepo)
	svc := NewChargingService(repo)
	ctx := context.Background()

	repo.On("GetCharge", ctx, int64(1)).Return(&models.Charge{VehicleTypeID: 1, PricePerMinute: 2}, nil).Once()
	repo.On("GetCharge", ctx, int64(2)).Return(nil, fmt.Errorf("charge: %w", database.ErrNotFound)).Once()

	charge, err := svc.FetchChargeByVehicleTypeID(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, charge.PricePerMinute, 1e-9)

	_, err = svc.FetchChargeByVehicleTypeID(ctx, 2)
	assert.True(t, IsNotFound(err))
	repo.AssertExpectations(t)
}
