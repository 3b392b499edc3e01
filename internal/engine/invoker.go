package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"scribe/internal/logging"
)

// Result describes one completed engine run.
type Result struct {
	Binary    string
	Args      []string
	ModelPath string
	ExitCode  int
	Stdout    []byte
	Stderr    []byte
	Duration  time.Duration
}

// Invoker runs the transcription engine as a child process. It holds no
// per-run state and is safe for concurrent use.
type Invoker struct {
	cfg    Config
	logger *slog.Logger
}

// NewInvoker creates an invoker for the configured engine.
func NewInvoker(cfg Config, logger *slog.Logger) *Invoker {
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = DefaultWaitDelay
	}
	return &Invoker{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "engine"),
	}
}

// Binary returns the configured executable path.
func (i *Invoker) Binary() string {
	return i.cfg.Binary
}

// Run streams audio into a fresh engine process and collects its output.
//
// stdin, stdout, and stderr are always pipes. The full buffer is written and
// stdin closed before Run waits for exit; the engine does not emit anything
// until it sees end-of-input. The child runs in its own process group, and the
// whole group is killed when ctx is done. Every path after a successful spawn
// reaps the child before returning.
func (i *Invoker) Run(ctx context.Context, audio []byte, modelPath string) (Result, error) {
	result := Result{
		Binary:    i.cfg.Binary,
		Args:      Args(modelPath, i.cfg.Language),
		ModelPath: modelPath,
		ExitCode:  -1,
	}
	logger := logging.WithContext(ctx, i.logger)

	if err := CheckBinary(i.cfg.Binary); err != nil {
		return result, err
	}

	cmd := exec.CommandContext(ctx, result.Binary, result.Args...) //nolint:gosec
	configureProcessGroup(cmd)
	cmd.WaitDelay = i.cfg.WaitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return result, fmt.Errorf("%w: stdin pipe: %w", ErrSpawnFailed, err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return result, fmt.Errorf("%w: stdout pipe: %w", ErrSpawnFailed, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return result, fmt.Errorf("%w: stderr pipe: %w", ErrSpawnFailed, err)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, contextError(ctxErr, 0)
		}
		return result, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}
	logger.Debug("engine started",
		logging.Int("pid", cmd.Process.Pid),
		logging.String("model_path", modelPath),
		logging.Bytes("audio_size", int64(len(audio))),
	)

	var stdout, stderr bytes.Buffer
	var readers errgroup.Group
	readers.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	readers.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})

	writeErr := writeAndClose(stdin, audio)
	if writeErr != nil {
		// Unblock the readers: a child that stopped reading may still be alive.
		_ = killProcessGroup(cmd)
	}
	readErr := readers.Wait()
	waitErr := cmd.Wait()

	result.Duration = time.Since(started)
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Debug("engine run abandoned", logging.Error(ctxErr), logging.Duration("elapsed", result.Duration))
		return result, contextError(ctxErr, result.Duration)
	}
	if writeErr != nil {
		return result, fmt.Errorf("%w: %w", ErrWriteFailed, writeErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return result, &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return result, fmt.Errorf("%w: wait: %w", ErrExecutionFailed, waitErr)
	}
	if readErr != nil {
		return result, fmt.Errorf("%w: read output: %w", ErrExecutionFailed, readErr)
	}

	logger.Debug("engine finished",
		logging.Duration("elapsed", result.Duration),
		logging.Bytes("stdout_size", int64(len(result.Stdout))),
	)
	return result, nil
}

// contextError reports an expired deadline as ErrTimeout and passes
// cancellation through unchanged.
func contextError(ctxErr error, elapsed time.Duration) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, elapsed.Round(time.Millisecond), ctxErr)
	}
	return ctxErr
}

func writeAndClose(stdin io.WriteCloser, audio []byte) error {
	_, err := stdin.Write(audio)
	closeErr := stdin.Close()
	if err != nil {
		return err
	}
	return closeErr
}
