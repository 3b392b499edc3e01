// Package transcribe composes audio validation, model selection, the engine
// run, and caption parsing into one request-scoped operation.
//
// Every failure is an *Error carrying a Kind sentinel, a client-safe Public
// message, and the wrapped cause. Caller-input kinds (ErrNoAudio,
// ErrInvalidAudio, ErrUnsupportedProfile) are tagged services.ErrValidation and
// map to HTTP 400; the rest are environment failures and map to 500.
package transcribe
