package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/placebreak/internal/location"
)

// ErrDispatcherStopped is returned by tasks submitted after Stop.
var ErrDispatcherStopped = errors.New("dispatcher is stopped")

// TaskError reports a dispatched mutation that failed.
type TaskError struct {
	// Op is the engine operation: put, remove or move.
	Op string

	// Location is the location the task was routed by.
	Location location.BlockLocation

	Err error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s task at %s: %v", e.Op, e.Location, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// IsStopped reports whether err comes from a task rejected by a stopped
// dispatcher. Uses errors.Is to handle wrapped errors.
func IsStopped(err error) bool {
	return errors.Is(err, ErrDispatcherStopped)
}
