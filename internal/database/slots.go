package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"payandpark/internal/models"
)

func (db *DB) GetParkingSlot(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	var (
		slot   models.ParkingSlot
		status string
	)
	query := `SELECT id, status, vehicle_type_id, updated_at FROM parking_slots WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(&slot.ID, &status, &slot.VehicleTypeID, &slot.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("parking slot %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parking slot: %w", err)
	}
	slot.Status, err = models.ParseSlotStatus(status)
	if err != nil {
		return nil, fmt.Errorf("parking slot %d: %w", id, err)
	}
	return &slot, nil
}

// slotStatusOrDefault normalizes case; an empty status means AVAILABLE.
func slotStatusOrDefault(status models.SlotStatus) (models.SlotStatus, error) {
	if status == "" {
		return models.SlotAvailable, nil
	}
	return models.ParseSlotStatus(string(status))
}

func (db *DB) UpdateParkingSlotStatus(ctx context.Context, id int64, status models.SlotStatus) error {
	query := `UPDATE parking_slots SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, string(status), nowUTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update parking slot status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update parking slot status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("parking slot %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateParkingSlotStatusFrom changes the status only if the slot is currently in from.
func (db *DB) UpdateParkingSlotStatusFrom(ctx context.Context, id int64, from, to models.SlotStatus) error {
	query := `UPDATE parking_slots SET status = ?, updated_at = ? WHERE id = ? AND UPPER(status) = ?`
	result, err := db.ExecContext(ctx, query, string(to), nowUTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to transition parking slot status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to transition parking slot status: %w", err)
	}
	if rows == 0 {
		if _, err := db.GetParkingSlot(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("parking slot %d is not %s: %w", id, from, ErrConcurrentModification)
	}
	return nil
}

func (db *DB) UpsertParkingSlot(ctx context.Context, slot *models.ParkingSlot) error {
	query := `INSERT INTO parking_slots (id, status, vehicle_type_id, updated_at) VALUES (?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                status = excluded.status,
                vehicle_type_id = excluded.vehicle_type_id,
                updated_at = excluded.updated_at`
	status, err := slotStatusOrDefault(slot.Status)
	if err != nil {
		return fmt.Errorf("parking slot %d: %w", slot.ID, err)
	}
	slot.Status = status

	now := nowUTC()
	if _, err := db.ExecContext(ctx, query, slot.ID, string(slot.Status), slot.VehicleTypeID, now); err != nil {
		return fmt.Errorf("failed to upsert parking slot: %w", err)
	}
	slot.UpdatedAt = now
	return nil
}

// CountParkingSlotsByStatus returns a count for every known status, zero included.
func (db *DB) CountParkingSlotsByStatus(ctx context.Context) (map[models.SlotStatus]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM parking_slots GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count parking slots: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.SlotStatus]int, len(models.SlotStatuses))
	for _, s := range models.SlotStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan slot count: %w", err)
		}
		parsed, err := models.ParseSlotStatus(status)
		if err != nil {
			db.logger.Warn().Str("status", status).Int("count", count).Msg("slots with unknown status skipped")
			continue
		}
		counts[parsed] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slot counts: %w", err)
	}
	return counts, nil
}
