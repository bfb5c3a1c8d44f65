package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payandpark/internal/models"
)

const bookingColumns = `id, parking_slot_id, user_id, start_time, end_time, status, price, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b       models.Booking
		status  string
		endTime sql.NullTime
		price   sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.ParkingSlotID, &b.UserID, &b.StartTime, &endTime,
		&status, &price, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = models.BookingStatus(status)
	if endTime.Valid {
		t := endTime.Time
		b.EndTime = &t
	}
	if price.Valid {
		p := price.Int64
		b.Price = &p
	}
	return &b, nil
}

// CreateBooking inserts an ACTIVE booking and fills in its ID and timestamps.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (parking_slot_id, user_id, start_time, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := nowUTC()
	if booking.StartTime.IsZero() {
		booking.StartTime = now
	}
	booking.StartTime = booking.StartTime.UTC()
	booking.Status = models.BookingActive

	result, err := db.ExecContext(ctx, query,
		booking.ParkingSlotID,
		booking.UserID,
		booking.StartTime,
		string(booking.Status),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.EndTime = nil
	booking.Price = nil
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// EndBooking sets the end time and moves an ACTIVE booking to ENDED.
func (db *DB) EndBooking(ctx context.Context, id int64, endTime time.Time) (*models.Booking, error) {
	query := `UPDATE bookings SET end_time = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query,
		endTime.UTC(), string(models.BookingEnded), nowUTC(), id, string(models.BookingActive))
	if err != nil {
		return nil, fmt.Errorf("failed to end booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to end booking: %w", err)
	}
	if rows == 0 {
		// Either the booking does not exist or it is no longer active.
		if _, err := db.GetBooking(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("booking %d: %w", id, ErrBookingNotActive)
	}

	return db.GetBooking(ctx, id)
}

func (db *DB) UpdateBookingPrice(ctx context.Context, id int64, price int64) (*models.Booking, error) {
	query := `UPDATE bookings SET price = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, price, nowUTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking price: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update booking price: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	return db.GetBooking(ctx, id)
}

func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY id ASC`)
}

func (db *DB) GetBookingsByStatus(ctx context.Context, status models.BookingStatus) ([]*models.Booking, error) {
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = ? ORDER BY id ASC`, string(status))
}

func (db *DB) GetBookingsByUserID(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY id ASC`, userID)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}
