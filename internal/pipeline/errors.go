package pipeline

import "errors"

var (
	ErrConfig         = errors.New("invalid configuration")
	ErrInvalidRoot    = errors.New("watch root is not a directory")
	ErrSubscription   = errors.New("subscription failed")
	ErrAlreadyStarted = errors.New("pipeline already started")

	errStreamClosed = errors.New("event stream closed")
)
