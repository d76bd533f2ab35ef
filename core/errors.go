package core

import "errors"

var (
	// ErrRunInProgress is returned by StartBackground while an earlier run
	// is still active.
	ErrRunInProgress = errors.New("simulation run already in progress")

	// ErrCacheMiss is returned by ElementCache implementations when no
	// usable cached element sets exist.
	ErrCacheMiss = errors.New("element set cache miss")
)
