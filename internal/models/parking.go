package models

import "time"

type ParkingSlot struct {
	ID            int64      `json:"id" yaml:"id"`
	Status        SlotStatus `json:"status" yaml:"status"`
	VehicleTypeID int64      `json:"vehicle_type_id" yaml:"vehicle_type_id"`
	UpdatedAt     time.Time  `json:"updated_at" yaml:"-"`
}

// Charge is the per-minute rate for one vehicle type.
type Charge struct {
	VehicleTypeID  int64   `json:"vehicle_type_id" yaml:"vehicle_type_id"`
	PricePerMinute float64 `json:"price_per_minute" yaml:"price_per_minute"`
}
