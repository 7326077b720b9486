package engine

import (
	"errors"
	"fmt"
)

// ErrProcessing is the only error a turn surfaces to the chat boundary.
// Callers translate it into a generic apology; the wrapped detail is for logs.
var ErrProcessing = errors.New("failed to process message")

// RetrievalError marks a resume or portfolio load failure. It is always
// recovered inside the knowledge store by substituting sample content.
type RetrievalError struct {
	Source string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s: %v", e.Source, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError marks a failed LLM call. The turn is answered by the
// fallback composer instead.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
