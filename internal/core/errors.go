package core

import "fmt"

// ValidationError reports data that violates a hard invariant of the wrapped
// sequence: inconsistent node groupings, out-of-range query arguments, or
// missing required metadata. The triggering operation aborts without mutating
// shared state.
type ValidationError struct {
	Op     string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// ConfigurationError reports caller-supplied options that cannot be honored:
// an unrecognised stage name, conflicting extension parameters, or an invalid
// model type.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func validationf(op, format string, args ...any) error {
	return ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func configurationf(op, format string, args ...any) error {
	return ConfigurationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
