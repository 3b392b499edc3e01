package transcribe

import (
	"errors"
	"fmt"
	"strings"

	"scribe/internal/services"
)

// Failure kinds. Every error returned by Pipeline.Transcribe is an *Error whose
// Kind is one of these.
var (
	ErrNoAudio             = errors.New("no audio provided")
	ErrInvalidAudio        = errors.New("invalid audio format")
	ErrUnsupportedProfile  = errors.New("unsupported audio profile")
	ErrModelNotFound       = errors.New("model not found")
	ErrEngineNotFound      = errors.New("engine not found")
	ErrEngineNotExecutable = errors.New("engine not executable")
	ErrSpawnFailed         = errors.New("engine spawn failed")
	ErrEngineWrite         = errors.New("engine write failed")
	ErrEngineFailed        = errors.New("engine execution failed")
)

// Class separates defects in the caller's input from problems with the local
// environment.
type Class string

const (
	ClassCaller      Class = "caller"
	ClassEnvironment Class = "environment"
)

// Error is a pipeline failure. Public is safe to return to clients; Err holds
// the full cause for logs.
type Error struct {
	Kind   error
	Public string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Public
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Class reports whether the failure was caused by the caller.
func (e *Error) Class() Class {
	if services.IsCallerError(e.Err) {
		return ClassCaller
	}
	return ClassEnvironment
}

// StatusCode is the HTTP status that reports this failure.
func (e *Error) StatusCode() int {
	return services.HTTPStatus(e.Err)
}

func newError(kind, marker error, operation, public string, cause error) *Error {
	return &Error{
		Kind:   kind,
		Public: public,
		Err:    services.Wrap(marker, "transcribe", operation, kind.Error(), cause),
	}
}

func callerError(kind error, operation, public string, cause error) *Error {
	return newError(kind, services.ErrValidation, operation, public, cause)
}

// PublicMessage returns the client-facing text for err.
func PublicMessage(err error) string {
	var perr *Error
	if errors.As(err, &perr) && strings.TrimSpace(perr.Public) != "" {
		return perr.Public
	}
	if err == nil {
		return ""
	}
	return "Internal server error"
}

func modelNotFoundMessage(name string) string {
	return fmt.Sprintf("Model file %s not found", name)
}
