package counters

import "fmt"

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("counter %s not found", e.ID)
}

func NotFound(id string) error {
	return &NotFoundError{ID: id}
}
