package service

import (
	"errors"
	"fmt"

	"payandpark/internal/database"
)

// ClientError reports a request the caller can fix: bad input or a slot/booking in the wrong state.
type ClientError struct {
	Reason string
}

func (e *ClientError) Error() string { return e.Reason }

func clientErrorf(format string, args ...any) error {
	return &ClientError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a booking, slot or charge that does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s :: %d not found", e.Resource, e.ID)
}

func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// notFound converts database.ErrNotFound into a NotFoundError and passes everything else through.
func notFound(err error, resource string, id int64) error {
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return err
}
