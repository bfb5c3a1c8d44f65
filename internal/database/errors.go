package database

import "errors"

var (
	ErrNotFound               = errors.New("record not found")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrBookingNotActive       = errors.New("booking is not active")
)
