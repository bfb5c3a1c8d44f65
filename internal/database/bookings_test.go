package database

import (
	"context"
	"testing"
	"time"

	"payandpark/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	seedTestData(t, db)
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{ParkingSlotID: 1, UserID: 42, StartTime: start}
	require.NoError(t, db.CreateBooking(ctx, booking))
	assert.NotZero(t, booking.ID)
	assert.Equal(t, models.BookingActive, booking.Status)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ParkingSlotID)
	assert.Equal(t, int64(42), got.UserID)
	assert.True(t, start.Equal(got.StartTime))
	assert.Nil(t, got.EndTime)
	assert.Nil(t, got.Price)
	assert.Equal(t, models.BookingActive, got.Status)
}

func TestGetBookingNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetBooking(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingUnknownSlot(t *testing.T) {
	db := setupTestDB(t)

	err := db.CreateBooking(context.Background(), &models.Booking{ParkingSlotID: 999, UserID: 1})
	assert.Error(t, err)
}

func TestEndBookingAndPrice(t *testing.T) {
	db := setupTestDB(t)
	seedTestData(t, db)
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{ParkingSlotID: 1, UserID: 7, StartTime: start}
	require.NoError(t, db.CreateBooking(ctx, booking))

	end := start.Add(42 * time.Minute)
	ended, err := db.EndBooking(ctx, booking.ID, end)
	require.NoError(t, err)
	assert.Equal(t, models.BookingEnded, ended.Status)
	require.NotNil(t, ended.EndTime)
	assert.True(t, end.Equal(*ended.EndTime))
	assert.Nil(t, ended.Price)

	priced, err := db.UpdateBookingPrice(ctx, booking.ID, 84)
	require.NoError(t, err)
	require.NotNil(t, priced.Price)
	assert.Equal(t, int64(84), *priced.Price)

	t.Run("EndTwice", func(t *testing.T) {
		_, err := db.EndBooking(ctx, booking.ID, end.Add(time.Minute))
		assert.ErrorIs(t, err, ErrBookingNotActive)
	})

	t.Run("EndMissing", func(t *testing.T) {
		_, err := db.EndBooking(ctx, 12345, end)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PriceMissing", func(t *testing.T) {
		_, err := db.UpdateBookingPrice(ctx, 12345, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	seedTestData(t, db)
	ctx := context.Background()

	b1 := &models.Booking{ParkingSlotID: 1, UserID: 1}
	b2 := &models.Booking{ParkingSlotID: 2, UserID: 2}
	b3 := &models.Booking{ParkingSlotID: 1, UserID: 1}
	for _, b := range []*models.Booking{b1, b2, b3} {
		require.NoError(t, db.CreateBooking(ctx, b))
	}
	_, err := db.EndBooking(ctx, b1.ID, time.Now())
	require.NoError(t, err)

	all, err := db.GetAllBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := db.GetBookingsByStatus(ctx, models.BookingActive)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	ended, err := db.GetBookingsByStatus(ctx, models.BookingEnded)
	require.NoError(t, err)
	require.Len(t, ended, 1)
	assert.Equal(t, b1.ID, ended[0].ID)

	mine, err := db.GetBookingsByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := db.GetBookingsByUserID(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
