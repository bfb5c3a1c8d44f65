package domain

import (
	"context"
	"time"

	"payandpark/internal/models"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	EndBooking(ctx context.Context, id int64, endTime time.Time) (*models.Booking, error)
	UpdateBookingPrice(ctx context.Context, id int64, price int64) (*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
	GetBookingsByStatus(ctx context.Context, status models.BookingStatus) ([]*models.Booking, error)
	GetBookingsByUserID(ctx context.Context, userID int64) ([]*models.Booking, error)
}

type SlotRepository interface {
	GetParkingSlot(ctx context.Context, id int64) (*models.ParkingSlot, error)
	UpdateParkingSlotStatus(ctx context.Context, id int64, status models.SlotStatus) error
	UpdateParkingSlotStatusFrom(ctx context.Context, id int64, from, to models.SlotStatus) error
	CountParkingSlotsByStatus(ctx context.Context) (map[models.SlotStatus]int, error)
}

type ChargeRepository interface {
	GetCharge(ctx context.Context, vehicleTypeID int64) (*models.Charge, error)
}

// ParkingSlotLookup is what the booking service needs from the slot subsystem.
type ParkingSlotLookup interface {
	FetchParkingSlotByID(ctx context.Context, id int64) (*models.ParkingSlot, error)
	UpdateParkingSlotStatus(ctx context.Context, id int64, status models.SlotStatus) error
	TransitionParkingSlotStatus(ctx context.Context, id int64, from, to models.SlotStatus) error
}

type ChargeLookup interface {
	FetchChargeByVehicleTypeID(ctx context.Context, vehicleTypeID int64) (*models.Charge, error)
}

// SlotLocker serializes booking operations on a single parking slot.
// The returned unlock func is safe to call once.
type SlotLocker interface {
	Lock(ctx context.Context, slotID int64) (func(), error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error)
	EndBooking(ctx context.Context, bookingID int64) (*models.Booking, error)
	FetchBookingDetailsByID(ctx context.Context, bookingID int64) (*models.Booking, error)
	FetchAllBookings(ctx context.Context, req models.FetchBookingsRequest) ([]*models.Booking, error)
}

type ParkingSlotService interface {
	ParkingSlotLookup
	CountSlotsByStatus(ctx context.Context) (map[models.SlotStatus]int, error)
}
