package errcode

import (
	"errors"

	"apmd-go/drivers/apmd"
	"apmd-go/x/spin"
)

// Code is a stable, wire-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	InvalidTopic   Code = "invalid_topic"
	UnknownOp      Code = "unknown_op"

	UnknownChannel Code = "unknown_channel"
	UnknownPhase   Code = "unknown_phase"
	UnknownPath    Code = "unknown_path"
	Timeout        Code = "timeout"
	LinkDown       Code = "link_down"

	// Driver state
	Enabled           Code = "enabled"
	NotConfigured     Code = "not_configured"
	InvalidPhaseCount Code = "invalid_phase_count"
	InvalidFilter     Code = "invalid_filter"
	Tripped           Code = "tripped"
	StillLatched      Code = "still_latched"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error. Driver sentinels map through
// MapDriverErr; anything else is Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return MapDriverErr(err)
}

// MapDriverErr maps low-level driver errors to a Code.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, apmd.ErrEnabled):
		return Enabled
	case errors.Is(err, apmd.ErrNotConfigured):
		return NotConfigured
	case errors.Is(err, apmd.ErrInvalidPhaseCount):
		return InvalidPhaseCount
	case errors.Is(err, apmd.ErrInvalidFilter):
		return InvalidFilter
	case errors.Is(err, apmd.ErrTripped):
		return Tripped
	case errors.Is(err, apmd.ErrStillLatched):
		return StillLatched
	case errors.Is(err, spin.ErrTimeout):
		return Timeout
	}
	return Error
}
