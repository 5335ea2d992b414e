package engine

import (
	"errors"
	"fmt"
)

// EngineError represents an error from an engine operation. It carries
// the operation that failed and a descriptive message, and wraps a
// sentinel error for errors.Is checks.
type EngineError struct {
	Op      string // Operation that failed (e.g., "Load", "Generate")
	Message string // Human-readable error message
	Err     error  // Wrapped underlying error (if any)
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("engine %s: %s", e.Op, e.Message)
}

// Unwrap returns the wrapped error, allowing use with errors.Is and
// errors.As.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Sentinel errors for common failure conditions.
var (
	// ErrModelNotFound indicates the model directory does not exist or
	// contains no model weights.
	ErrModelNotFound = errors.New("model not found")

	// ErrModelLoadFailed indicates the model directory exists but the
	// weights failed to load.
	ErrModelLoadFailed = errors.New("failed to load model")

	// ErrGenerationFailed indicates a generation call returned failure.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrContextClosed indicates an operation on a closed context.
	ErrContextClosed = errors.New("model context is closed")
)
