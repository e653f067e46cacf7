package domain

// ValidationError represents a field-level validation failure.
// It is reported to the caller before any job record is created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
