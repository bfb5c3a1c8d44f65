package models

import (
	"fmt"
	"strconv"
	"strings"
)

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "AVAILABLE"
	SlotBooked      SlotStatus = "BOOKED"
	SlotUnavailable SlotStatus = "UNAVAILABLE"
)

// SlotStatuses lists every slot status in display order.
var SlotStatuses = []SlotStatus{SlotAvailable, SlotBooked, SlotUnavailable}

func (s SlotStatus) String() string { return string(s) }

// ParseSlotStatus normalizes case and rejects unknown values.
func ParseSlotStatus(raw string) (SlotStatus, error) {
	switch s := SlotStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case SlotAvailable, SlotBooked, SlotUnavailable:
		return s, nil
	default:
		return "", fmt.Errorf("unknown slot status %q", raw)
	}
}

type BookingStatus string

const (
	// BookingAll is a filter value only and is never stored.
	BookingAll    BookingStatus = "ALL"
	BookingActive BookingStatus = "ACTIVE"
	BookingEnded  BookingStatus = "ENDED"
)

func (s BookingStatus) String() string { return string(s) }

// ParseBookingStatus upper-cases raw and returns ok=false for anything outside ALL/ACTIVE/ENDED.
// The normalized value is returned either way so callers can report it.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	s := BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case BookingAll, BookingActive, BookingEnded:
		return s, true
	default:
		return s, false
	}
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }
