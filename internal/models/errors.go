package models

import "fmt"

// ConfigError reports a missing or out-of-range configuration field. The
// engine refuses to schedule any event for a config that fails validation;
// populated-but-invalid fields are never silently defaulted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
