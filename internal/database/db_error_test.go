package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"payandpark/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close() // Close the DB to trigger errors

	ctx := context.Background()

	t.Run("CreateBooking_Error", func(t *testing.T) {
		assert.Error(t, db.CreateBooking(ctx, &models.Booking{}))
	})

	t.Run("GetAllBookings_Error", func(t *testing.T) {
		_, err := db.GetAllBookings(ctx)
		assert.Error(t, err)
	})

	t.Run("EndBooking_Error", func(t *testing.T) {
		_, err := db.EndBooking(ctx, 1, time.Now())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("CountParkingSlots_Error", func(t *testing.T) {
		_, err := db.CountParkingSlotsByStatus(ctx)
		assert.Error(t, err)
	})

	t.Run("SyncSeed_Error", func(t *testing.T) {
		assert.Error(t, db.SyncSeed(ctx, nil, nil))
	})
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	logger := zerolog.Nop()
	return newWithConn(conn, &logger), mock
}

func TestDB_DriverErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("RowsAffectedError", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE parking_slots SET status").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected unsupported")))

		err := db.UpdateParkingSlotStatus(ctx, 1, models.SlotBooked)
		assert.ErrorContains(t, err, "rows affected unsupported")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdatePriceExecError", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE bookings SET price").
			WithArgs(int64(10), sqlmock.AnyArg(), int64(3)).
			WillReturnError(errors.New("disk I/O error"))

		_, err := db.UpdateBookingPrice(ctx, 3, 10)
		assert.ErrorContains(t, err, "failed to update booking price")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ScanError", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE user_id").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		_, err := db.GetBookingsByUserID(ctx, 5)
		assert.ErrorContains(t, err, "failed to scan booking")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CountRowsError", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT status, COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("AVAILABLE", 3).
				RowError(0, errors.New("cursor broken")))

		_, err := db.CountParkingSlotsByStatus(ctx)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
