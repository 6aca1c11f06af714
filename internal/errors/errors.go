package errors

// InferenceError indicates the model was unavailable or the prediction
// computation failed. Callers may retry once the model status is ready again.
type InferenceError struct {
	ErrorMsg string
}

func (m *InferenceError) Error() string {
	return m.ErrorMsg
}

// PersistenceError indicates a prediction record write failed. The batch is
// aborted at the failing chunk; earlier chunks stay committed.
type PersistenceError struct {
	ErrorMsg string
}

func (m *PersistenceError) Error() string {
	return m.ErrorMsg
}

// ModelUpdateError indicates artifact validation or install failed. The model
// stays in error status until a later update succeeds.
type ModelUpdateError struct {
	ErrorMsg string
}

func (m *ModelUpdateError) Error() string {
	return m.ErrorMsg
}

// ValidationError indicates a malformed request, rejected before any
// processing begins.
type ValidationError struct {
	ErrorMsg string
}

func (m *ValidationError) Error() string {
	return m.ErrorMsg
}
