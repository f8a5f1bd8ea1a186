package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind classifies a pipeline failure for retry decisions.
type Kind string

const (
	// KindTransient covers provider timeouts, rate limits and network
	// I/O failures. Retried up to the stage's attempt ceiling.
	KindTransient Kind = "transient"
	// KindPermanent covers corrupt/unsupported sources and invalid
	// configuration. Never retried.
	KindPermanent Kind = "permanent"
	// KindValidation covers constraint violations rejected before
	// persistence. Fails the originating job immediately.
	KindValidation Kind = "validation"
	// KindMissingDependency covers work requested before its inputs
	// exist (render before script, referenced asset absent). Fails the
	// dependent job only.
	KindMissingDependency Kind = "missing_dependency"
)

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return string(e.kind) + ": " + e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// Mark wraps err with a failure kind. A nil err returns nil.
func Mark(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

func Transientf(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), KindTransient)
}

func Permanentf(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), KindPermanent)
}

func Validationf(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), KindValidation)
}

func MissingDependencyf(format string, args ...any) error {
	return Mark(fmt.Errorf(format, args...), KindMissingDependency)
}

// Classify returns the kind carried by err. Unmarked errors default to
// transient so that unknown provider failures get the bounded-retry
// path rather than silently becoming terminal.
func Classify(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindTransient
}

// IsRetryable reports whether the orchestrator may respawn the job.
func IsRetryable(err error) bool {
	return Classify(err) == KindTransient
}

func Is(err, target error) bool { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }
