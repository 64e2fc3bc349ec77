package source

import (
	"errors"
	"fmt"
)

// ErrNoDataObjects is returned when a latest timestamp is requested for a
// collection without any data objects.
var ErrNoDataObjects = errors.New("collection has no data objects")

// ScanError is returned when the source inventory cannot be built.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan source %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
