// Package engine runs the external speech-to-text executable.
//
// The command-line contract is fixed: the model path, "-f -" to read audio from
// stdin, the language code, "-ovtt" for WebVTT output, and "-of -" to write it
// to stdout. Failures are reported with distinct sentinels (ErrNotFound,
// ErrNotExecutable, ErrSpawnFailed, ErrWriteFailed, ErrExecutionFailed,
// ErrTimeout) so callers can map them to their own taxonomy.
package engine
