package db

import "fmt"

// NotFoundError is returned when a row referenced by id doesn't exist.
type NotFoundError struct {
	Kind string
	ID   int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}
