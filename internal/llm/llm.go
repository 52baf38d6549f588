package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// LLMClient is the minimal surface the pipeline needs from a model provider.
// GenerateJSON returns the model's reply verbatim; it is not validated, so
// callers must be prepared for fenced or malformed JSON.
type LLMClient interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
