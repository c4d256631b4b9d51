package domain

import "errors"

var (
	ErrUnknownCorner      = errors.New("unknown corner")
	ErrUnknownActionType  = errors.New("unknown action type")
	ErrEmptyValue         = errors.New("action value is empty")
	ErrInvalidValue       = errors.New("action value is invalid")
	ErrInvalidThreshold   = errors.New("threshold must be at least 1 pixel")
	ErrNegativeDuration   = errors.New("duration must not be negative")
	ErrPointerUnavailable = errors.New("pointer position unavailable")
	ErrAlreadyRunning     = errors.New("another firecorners daemon is already running")
	ErrNotRunning         = errors.New("firecorners daemon is not running")
)
