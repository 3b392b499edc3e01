package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Flags of the whisper-cli command-line contract.
const (
	FlagModel    = "-m"
	FlagFile     = "-f"
	FlagLanguage = "-l"
	FlagVTT      = "-ovtt"
	FlagOutput   = "-of"
	// StdioPath tells the engine to use stdin (with -f) or stdout (with -of).
	StdioPath = "-"
)

// DefaultWaitDelay bounds how long Run waits for the engine's pipes to close
// after the process is killed.
const DefaultWaitDelay = 2 * time.Second

var (
	ErrNotFound        = errors.New("engine executable not found")
	ErrNotExecutable   = errors.New("engine executable is not executable")
	ErrSpawnFailed     = errors.New("failed to spawn engine")
	ErrWriteFailed     = errors.New("failed to write audio to engine")
	ErrExecutionFailed = errors.New("engine execution failed")
	ErrTimeout         = errors.New("engine run timed out")
)

// Config captures how the engine executable is invoked.
type Config struct {
	// Binary is the path to the whisper-cli compatible executable.
	Binary string
	// Language is the code passed with -l.
	Language string
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// Args builds the fixed argument list: read audio from stdin, emit WebVTT to stdout.
func Args(modelPath, language string) []string {
	return []string{
		FlagModel, modelPath,
		FlagFile, StdioPath,
		FlagLanguage, language,
		FlagVTT,
		FlagOutput, StdioPath,
	}
}

// ExitError is returned when the engine exits with a non-zero status. Stderr
// holds the engine's diagnostic output verbatim.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("%s: exit status %d", ErrExecutionFailed, e.Code)
	}
	return fmt.Sprintf("%s: exit status %d: %s", ErrExecutionFailed, e.Code, detail)
}

func (e *ExitError) Unwrap() error { return ErrExecutionFailed }

// CheckBinary verifies that path names an existing regular file the current
// user may execute.
func CheckBinary(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: no path configured", ErrNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: stat %s: %w", ErrNotExecutable, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotExecutable, path)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s has no execute permission", ErrNotExecutable, path)
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotExecutable, path, err)
	}
	return nil
}
