package model

import "fmt"

// ConfigError indicates physically impossible or internally inconsistent
// simulation parameters. It is fatal for the run that produced it: setup-phase
// callers surface it to their caller with the offending satellite attached.
type ConfigError struct {
	Satellite string // may be empty when the error is not satellite-specific
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.Satellite == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Satellite, e.Reason)
}
