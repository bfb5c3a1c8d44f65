package models

import "time"

type Booking struct {
	ID            int64         `json:"id"`
	ParkingSlotID int64         `json:"parking_slot_id"`
	UserID        int64         `json:"user_id"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       *time.Time    `json:"end_time"`
	Status        BookingStatus `json:"status"`
	Price         *int64        `json:"price"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CreateBookingRequest is the input of a new booking.
type CreateBookingRequest struct {
	ParkingSlotID int64 `json:"parking_slot_id"`
	UserID        int64 `json:"user_id"`
}

// FetchBookingsRequest filters the booking list. Status wins over UserID when both are set.
type FetchBookingsRequest struct {
	Status string `json:"status,omitempty"`
	UserID *int64 `json:"user_id,omitempty"`
}

func (r FetchBookingsRequest) String() string {
	userID := "<nil>"
	if r.UserID != nil {
		userID = formatInt(*r.UserID)
	}
	return "FetchBookingsRequest(status=" + r.Status + ", userId=" + userID + ")"
}
