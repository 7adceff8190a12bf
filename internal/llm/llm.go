// Package llm is the boundary to the generative model. Clients produce one
// structured JSON document per prompt; cross-cutting concerns are layered on
// with Middleware.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Client generates a JSON document that should conform to schema.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error)
	Close() error
}

// Schema is a provider-neutral subset of OpenAPI schema used for structured
// output.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	// Ordering keeps property order stable in the model's output.
	Ordering []string `json:"-"`
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
