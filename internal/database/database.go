package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"payandpark/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger

	mu           sync.RWMutex
	chargesCache map[int64]models.Charge
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; one connection also keeps :memory: databases shared.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := newWithConn(conn, logger)
	if err := db.createTables(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	db.logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

func newWithConn(conn *sql.DB, logger *zerolog.Logger) *DB {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &DB{
		DB:           conn,
		logger:       logger,
		chargesCache: make(map[int64]models.Charge),
	}
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS parking_slots (
            id INTEGER PRIMARY KEY,
            status TEXT NOT NULL DEFAULT 'AVAILABLE',
            vehicle_type_id INTEGER NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS charges (
            vehicle_type_id INTEGER PRIMARY KEY,
            price_per_minute REAL NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            parking_slot_id INTEGER NOT NULL REFERENCES parking_slots(id),
            user_id INTEGER NOT NULL,
            start_time DATETIME NOT NULL,
            end_time DATETIME,
            status TEXT NOT NULL DEFAULT 'ACTIVE',
            price INTEGER,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_slot_id ON bookings(parking_slot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_parking_slots_status ON parking_slots(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SyncSeed upserts reference data in one transaction. Existing slots keep their status
// so a restart never frees a BOOKED slot.
func (db *DB) SyncSeed(ctx context.Context, slots []models.ParkingSlot, charges []models.Charge) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := nowUTC()
	for _, c := range charges {
		_, err := tx.ExecContext(ctx, `INSERT INTO charges (vehicle_type_id, price_per_minute, updated_at)
              VALUES (?, ?, ?)
              ON CONFLICT(vehicle_type_id) DO UPDATE SET
                price_per_minute = excluded.price_per_minute,
                updated_at = excluded.updated_at`,
			c.VehicleTypeID, c.PricePerMinute, now)
		if err != nil {
			return fmt.Errorf("failed to seed charge %d: %w", c.VehicleTypeID, err)
		}
	}

	for _, s := range slots {
		status, err := slotStatusOrDefault(s.Status)
		if err != nil {
			return fmt.Errorf("failed to seed parking slot %d: %w", s.ID, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO parking_slots (id, status, vehicle_type_id, updated_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                vehicle_type_id = excluded.vehicle_type_id,
                updated_at = excluded.updated_at`,
			s.ID, string(status), s.VehicleTypeID, now)
		if err != nil {
			return fmt.Errorf("failed to seed parking slot %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	db.mu.Lock()
	for _, c := range charges {
		db.chargesCache[c.VehicleTypeID] = c
	}
	db.mu.Unlock()

	db.logger.Info().Int("slots", len(slots)).Int("charges", len(charges)).Msg("seed data synced")
	return nil
}

// Timestamps are stored in UTC so sqlite string comparison matches time order.
func nowUTC() time.Time { return time.Now().UTC() }
