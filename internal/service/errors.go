package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the record an operation targets does
	// not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a goal update carried an expected
	// revision that no longer matches the stored one
	ErrConflict = errors.New("record was modified concurrently")
)

// OpError is the failure of a single service operation
type OpError struct {
	Op  string // e.g. "tasks.update"
	ID  string // empty for operations not addressed by id
	Err error
}

func (e *OpError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// PartialWriteError reports a goal write whose first step (the goal row)
// succeeded and whose milestone step did not. The goal row is left as
// written.
type PartialWriteError struct {
	GoalID string
	Step   string
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("goal %s written but %s failed: %v", e.GoalID, e.Step, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// IsPartialWrite reports whether err is, or wraps, a *PartialWriteError
func IsPartialWrite(err error) bool {
	var pw *PartialWriteError
	return errors.As(err, &pw)
}

// IsNotFound reports whether err means the targeted record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a revision mismatch
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
