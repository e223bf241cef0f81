package apmd

import "errors"

var (
	// Sentinel errors (TinyGo-safe; no fmt)
	ErrEnabled           = errors.New("enabled")             // write requires PWMEN=0
	ErrNotConfigured     = errors.New("not_configured")      // channel not initialised or has no phases
	ErrInvalidPhaseCount = errors.New("invalid_phase_count") // phase count outside 0..3
	ErrTripped           = errors.New("tripped")             // a protection latch is set
	ErrStillLatched      = errors.New("still_latched")       // release did not clear the latch
	ErrInvalidFilter     = errors.New("invalid_filter")      // trip filter count outside 0..31
)
