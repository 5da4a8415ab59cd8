package scoring

// ValidationError is malformed input detected before anything is persisted.
// Reason is meant to be shown to the admin as-is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
