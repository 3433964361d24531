package transfer

import "errors"

var (
	ErrInvalidSize           = errors.New("invalid frame size")
	ErrNilSink               = errors.New("nil sink")
	ErrNilScheduler          = errors.New("nil scheduler")
	ErrInvalidTrailingFrames = errors.New("negative trailing frame count")
	ErrSizeMismatch          = errors.New("frame size mismatch")
	ErrUnknownFormat         = errors.New("unknown pixel format")
	ErrUnknownMode           = errors.New("unknown transfer mode")

	// ErrStateViolation is wrapped by the panic raised when a stage is found
	// in a state its own transition should have made impossible.
	ErrStateViolation = errors.New("transfer stage state violation")
)
