// Package core implements the orchestration layer of the CLI: option
// validation, seed resolution, generation mode selection, and the
// pipeline that drives one run from parameters to a persisted image.
package core

import (
	"errors"
	"fmt"
)

// RunError represents a terminal failure of one generation run. It
// carries a stable code for programmatic handling and wraps the
// underlying error for errors.Is/As.
//
// There are no retries anywhere in this layer: every RunError ends the
// run, is reported once to standard error, and maps to exit code 1.
type RunError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message with operation + path context
	Err     error  // Wrapped underlying error (if any)
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Error codes, one per failure class of the run.
const (
	// ErrCodeArgument: missing or out-of-range required input,
	// detected before any resource is acquired.
	ErrCodeArgument = "ARGUMENT"
	// ErrCodeModelLoad: the engine failed to load the model directory.
	ErrCodeModelLoad = "MODEL_LOAD"
	// ErrCodeImageLoad: the img2img input image failed to load.
	ErrCodeImageLoad = "IMAGE_LOAD"
	// ErrCodeEmbeddingsFile: embeddings file open or short-read failure.
	ErrCodeEmbeddingsFile = "EMBEDDINGS_FILE"
	// ErrCodeNoiseFile: noise file open or short-read failure.
	ErrCodeNoiseFile = "NOISE_FILE"
	// ErrCodeGeneration: the engine's generation call returned failure.
	ErrCodeGeneration = "GENERATION"
	// ErrCodeImageSave: the generated image could not be persisted.
	ErrCodeImageSave = "IMAGE_SAVE"
)

// ErrArgument returns an ArgumentError for a missing or invalid input.
func ErrArgument(message string) *RunError {
	return &RunError{Code: ErrCodeArgument, Message: message}
}

// ErrArgumentf is ErrArgument with formatting.
func ErrArgumentf(format string, args ...interface{}) *RunError {
	return &RunError{Code: ErrCodeArgument, Message: fmt.Sprintf(format, args...)}
}

// ErrModelLoad returns an error for a failed model load.
func ErrModelLoad(dir string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeModelLoad,
		Message: fmt.Sprintf("failed to load model from %s", dir),
		Err:     err,
	}
}

// ErrImageLoad returns an error for a failed input image load.
func ErrImageLoad(path string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeImageLoad,
		Message: fmt.Sprintf("failed to load input image %s", path),
		Err:     err,
	}
}

// ErrEmbeddingsFile returns an error for a failed embeddings file read.
func ErrEmbeddingsFile(path string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeEmbeddingsFile,
		Message: fmt.Sprintf("failed to read embeddings file %s", path),
		Err:     err,
	}
}

// ErrNoiseFile returns an error for a failed noise file read.
func ErrNoiseFile(path string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeNoiseFile,
		Message: fmt.Sprintf("failed to read noise file %s", path),
		Err:     err,
	}
}

// ErrGeneration returns an error for a failed generation call.
func ErrGeneration(mode string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeGeneration,
		Message: fmt.Sprintf("generation failed (%s mode)", mode),
		Err:     err,
	}
}

// ErrImageSave returns an error for a failed image save.
func ErrImageSave(path string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeImageSave,
		Message: fmt.Sprintf("failed to save image to %s", path),
		Err:     err,
	}
}

// IsRunError checks if an error is a RunError and returns it if so.
func IsRunError(err error) (*RunError, bool) {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr, true
	}
	return nil, false
}

// ErrorCode extracts the code from an error if it is a RunError,
// otherwise returns "".
func ErrorCode(err error) string {
	if runErr, ok := IsRunError(err); ok {
		return runErr.Code
	}
	return ""
}
