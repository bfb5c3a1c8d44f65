package domain

import "errors"

// ErrSlotBusy is returned by a SlotLocker that could not take the lock before its wait deadline.
var ErrSlotBusy = errors.New("parking slot is locked")
