package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound is returned when the input path does not exist or cannot be read.
	ErrInputNotFound = errors.New("moviebarcode: input not found")

	// ErrInvalidOutputPath is returned when the resolved output directory does not exist.
	ErrInvalidOutputPath = errors.New("moviebarcode: invalid output path")

	// ErrInvalidNumericParameter is returned when a numeric parameter is not a positive integer
	// or is inconsistent with the other parameters.
	ErrInvalidNumericParameter = errors.New("moviebarcode: invalid numeric parameter")

	// ErrDecoderUnavailable is returned when the decoder process cannot be launched.
	ErrDecoderUnavailable = errors.New("moviebarcode: decoder unavailable")

	// ErrDecoderFailure is returned when the decoder exits abnormally or its output is malformed.
	ErrDecoderFailure = errors.New("moviebarcode: decoder failure")

	// ErrComposition is returned when a frame cannot be turned into a strip.
	ErrComposition = errors.New("moviebarcode: composition error")

	// ErrCancelled is returned when the caller cancels a running generation.
	// It is a clean abort, not a failure.
	ErrCancelled = errors.New("moviebarcode: cancelled by caller")
)

// ValidationError reports the parameter that failed validation.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v (%s)", e.Err, e.Field)
	}
	return fmt.Sprintf("%v (%s=%q)", e.Err, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DecoderError carries the context of a decoder failure: the exit code
// (-1 when the process did not exit on its own), how many complete frames
// were read before the failure and what the decoder wrote to stderr.
type DecoderError struct {
	ExitCode   int
	FramesRead int
	Expected   int
	Stderr     string
	Err        error
}

func (e *DecoderError) Error() string {
	msg := fmt.Sprintf("%v: read %d of %d frames", ErrDecoderFailure, e.FramesRead, e.Expected)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(", exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

// Is reports ErrDecoderFailure so that callers can match with errors.Is.
func (e *DecoderError) Is(target error) bool {
	return target == ErrDecoderFailure
}

func (e *DecoderError) Unwrap() error {
	return e.Err
}

// CompositionError reports the sample index whose strip could not be produced.
type CompositionError struct {
	FrameIndex int
	Err        error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("%v: frame %d: %v", ErrComposition, e.FrameIndex, e.Err)
}

// Is reports ErrComposition so that callers can match with errors.Is.
func (e *CompositionError) Is(target error) bool {
	return target == ErrComposition
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// Cancelled wraps cause (usually ctx.Err()) as ErrCancelled.
func Cancelled(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// IsCancelled reports whether err is a caller cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
