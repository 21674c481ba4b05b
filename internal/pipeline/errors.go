package pipeline

import (
	"errors"
	"fmt"
)

// Kind categorizes pipeline errors.
type Kind string

const (
	// KindBuildFailure indicates the compiler could not be run or exited non-zero.
	KindBuildFailure Kind = "BUILD_FAILURE"

	// KindOptimizationFailure indicates the optimizer is missing, failed, or
	// produced no output. It is recovered by the fallback copy and only ever
	// reaches callers as the Cause of an OptimizeResult.
	KindOptimizationFailure Kind = "OPTIMIZATION_FAILURE"

	// KindIOFailure indicates a read, write, copy or delete on one of the
	// run's fixed paths failed.
	KindIOFailure Kind = "IO_FAILURE"
)

// Error is a failure of one pipeline stage.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Stage is the stage that was being entered when the failure happened.
	Stage Stage

	// Message is a human-readable description.
	Message string

	// Path is the file involved, for I/O failures.
	Path string

	// ExitCode is the external process exit code, or -1 if it never ran.
	ExitCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsBuildFailure returns true if the error is a compiler failure.
// Uses errors.As to handle wrapped errors.
func IsBuildFailure(err error) bool {
	return hasKind(err, KindBuildFailure)
}

// IsOptimizationFailure returns true if the error is an optimizer failure.
func IsOptimizationFailure(err error) bool {
	return hasKind(err, KindOptimizationFailure)
}

// IsIOFailure returns true if the error is a filesystem failure.
func IsIOFailure(err error) bool {
	return hasKind(err, KindIOFailure)
}

func hasKind(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// newBuildError creates an Error for a failed compiler invocation.
func newBuildError(message string, exitCode int, err error) *Error {
	return &Error{
		Kind:     KindBuildFailure,
		Stage:    StageCompiled,
		Message:  message,
		ExitCode: exitCode,
		Err:      err,
	}
}

// newOptimizationError creates an Error for a failed optimizer invocation.
func newOptimizationError(message string, exitCode int, err error) *Error {
	return &Error{
		Kind:     KindOptimizationFailure,
		Stage:    StageOptimized,
		Message:  message,
		ExitCode: exitCode,
		Err:      err,
	}
}

// newIOError creates an Error for a failed filesystem operation.
func newIOError(stage Stage, message, path string, err error) *Error {
	return &Error{
		Kind:     KindIOFailure,
		Stage:    stage,
		Message:  message,
		Path:     path,
		ExitCode: -1,
		Err:      err,
	}
}
