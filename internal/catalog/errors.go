package catalog

import "fmt"

// RemovalError is returned when a published resource cannot be deleted.
type RemovalError struct {
	ID   string
	Path string
	Err  error
}

func (e *RemovalError) Error() string {
	return fmt.Sprintf("remove resource %s (%s): %v", e.ID, e.Path, e.Err)
}

func (e *RemovalError) Unwrap() error {
	return e.Err
}
