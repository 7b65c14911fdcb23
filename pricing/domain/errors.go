package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPricingTableNotFound is returned when no table matches the (supplier, id) pair
	ErrPricingTableNotFound = errors.New("pricing table not found")
)

// AccessError wraps a failure of the underlying store (or of acquiring access to it).
// The original error is kept for errors.Is / errors.As.
type AccessError struct {
	Op         string
	SupplierID string
	ID         string
	Err        error
}

func (e *AccessError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("pricing %s (supplier=%s id=%s): %v", e.Op, e.SupplierID, e.ID, e.Err)
	}
	return fmt.Sprintf("pricing %s (supplier=%s): %v", e.Op, e.SupplierID, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// IsAccessError reports whether err is, or wraps, an *AccessError.
func IsAccessError(err error) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr)
}
