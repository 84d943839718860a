package domain

import (
	"errors"
	"fmt"
)

// ErrDecode marks a missing or unparsable snapshot payload.
// It is never fatal: the last good render stays on screen.
var ErrDecode = errors.New("snapshot decode failed")

// ErrMalformedNode marks a node matching neither the leaf nor the group shape.
var ErrMalformedNode = errors.New("malformed command node")

// ErrViewNotFound is returned when a saved view state cannot be found in the store.
var ErrViewNotFound = errors.New("view state not found")

// DecodeError wraps the reason a payload could not be decoded.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Cause == nil {
		return ErrDecode.Error() + ": no payload"
	}
	return fmt.Sprintf("%s: %v", ErrDecode, e.Cause)
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Cause }

// MalformedNodeError reports a skipped node and where it was found.
type MalformedNodeError struct {
	// Path is the container path of the node, e.g. "subsystem-0/Drive/1".
	Path   string
	Reason string
}

func (e *MalformedNodeError) Error() string {
	return fmt.Sprintf("%s at %q: %s", ErrMalformedNode, e.Path, e.Reason)
}

func (e *MalformedNodeError) Is(target error) bool { return target == ErrMalformedNode }
