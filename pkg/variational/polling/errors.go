package polling

import (
	"errors"
	"fmt"
)

var (
	ErrObjectNotFound   = errors.New("polling: object not found")
	ErrUnexpectedStatus = errors.New("polling: unexpected final status")
	ErrPollTimeout      = errors.New("polling: timeout")
)

// NotFoundError means the fetch returned nothing for the id. It is never
// retried.
type NotFoundError struct {
	ObjectType string
	ObjectID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("polling: %s '%s' not found", e.ObjectType, e.ObjectID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrObjectNotFound }

// UnexpectedStatusError means the resource settled in a final status other
// than the one waited for.
type UnexpectedStatusError struct {
	ObjectType string
	ObjectID   string
	Status     string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("polling: unexpected final status '%s' for %s '%s'", e.Status, e.ObjectType, e.ObjectID)
}

func (e *UnexpectedStatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// TimeoutError means every attempt saw a non-final status.
type TimeoutError struct {
	ObjectType string
	ObjectID   string
	Desired    string
	Attempts   int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("polling: timeout waiting for %s '%s' to become '%s'", e.ObjectType, e.ObjectID, e.Desired)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrPollTimeout }
