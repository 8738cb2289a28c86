package gateway

import "fmt"

// ErrorKind partitions gateway failures for the orchestrator's recovery
// policy. The gateway itself never retries; retry/fallback belongs to the
// caller.
type ErrorKind string

const (
	KindTimeout ErrorKind = "TIMEOUT"
	KindNetwork ErrorKind = "NETWORK"
	KindBackend ErrorKind = "BACKEND_ERROR"
)

// GenerationError is the typed failure returned by every Generator.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("generation %s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, msg string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Message: msg, Err: err}
}
