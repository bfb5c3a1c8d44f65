package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"payandpark/internal/models"
)

// GetCharge returns the rate for a vehicle type, served from cache when possible.
func (db *DB) GetCharge(ctx context.Context, vehicleTypeID int64) (*models.Charge, error) {
	db.mu.RLock()
	cached, ok := db.chargesCache[vehicleTypeID]
	db.mu.RUnlock()
	if ok {
		return &cached, nil
	}

	var charge models.Charge
	query := `SELECT vehicle_type_id, price_per_minute FROM charges WHERE vehicle_type_id = ?`
	err := db.QueryRowContext(ctx, query, vehicleTypeID).Scan(&charge.VehicleTypeID, &charge.PricePerMinute)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("charge for vehicle type %d: %w", vehicleTypeID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get charge: %w", err)
	}

	db.mu.Lock()
	db.chargesCache[vehicleTypeID] = charge
	db.mu.Unlock()

	return &charge, nil
}

func (db *DB) UpsertCharge(ctx context.Context, charge models.Charge) error {
	query := `INSERT INTO charges (vehicle_type_id, price_per_minute, updated_at) VALUES (?, ?, ?)
              ON CONFLICT(vehicle_type_id) DO UPDATE SET
                price_per_minute = excluded.price_per_minute,
                updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, query, charge.VehicleTypeID, charge.PricePerMinute, nowUTC()); err != nil {
		return fmt.Errorf("failed to upsert charge: %w", err)
	}

	db.mu.Lock()
	db.chargesCache[charge.VehicleTypeID] = charge
	db.mu.Unlock()
	return nil
}
