package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"scribe/internal/audio"
	"scribe/internal/captions"
	"scribe/internal/config"
	"scribe/internal/engine"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// Config is everything the pipeline needs; nothing is read from the process
// environment.
type Config struct {
	ModelsDir    string
	DefaultModel string
	Engine       engine.Config
	// Timeout bounds one engine run. Zero means no bound.
	Timeout time.Duration
}

// ConfigFrom maps the service configuration onto pipeline settings.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ModelsDir:    cfg.Paths.ModelsDir,
		DefaultModel: cfg.Engine.DefaultModel,
		Engine: engine.Config{
			Binary:   cfg.Engine.Binary,
			Language: cfg.Engine.Language,
		},
		Timeout: cfg.EngineTimeout(),
	}
}

// Runner executes the transcription engine.
type Runner interface {
	Run(ctx context.Context, audio []byte, modelPath string) (engine.Result, error)
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRunner replaces the engine runner (used in tests).
func WithRunner(r Runner) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.runner = r
		}
	}
}

// Pipeline validates audio, selects a model, runs the engine, and parses its
// captions. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// New constructs a pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "transcribe")
	if p.runner == nil {
		p.runner = engine.NewInvoker(cfg.Engine, p.logger)
	}
	return p
}

// Transcribe runs one request through the pipeline. Validation happens before
// any filesystem or process work, so rejected audio never starts the engine.
func (p *Pipeline) Transcribe(ctx context.Context, data []byte, model string) ([]captions.Segment, error) {
	logger := logging.WithContext(ctx, p.logger)

	if len(data) == 0 {
		return nil, p.fail(logger, callerError(ErrNoAudio, "read upload", "No WAV file provided", nil))
	}

	buf, err := audio.Inspect(data)
	if err != nil {
		return nil, p.fail(logger, callerError(ErrInvalidAudio, "inspect audio",
			fmt.Sprintf("Invalid WAV format: %s", strings.TrimPrefix(err.Error(), audio.ErrInvalidFormat.Error()+": ")), err))
	}
	if err := buf.CheckProfile(audio.RequiredProfile); err != nil {
		return nil, p.fail(logger, callerError(ErrUnsupportedProfile, "check profile",
			fmt.Sprintf("WAV must be %s", audio.RequiredProfile)+profileDetail(err), err))
	}

	name, modelPath, rerr := p.resolveModel(model)
	if rerr != nil {
		return nil, p.fail(logger, rerr)
	}
	ctx = services.WithModel(ctx, name)
	logger = logging.WithContext(ctx, p.logger)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	logger.Info("transcription started", logging.Bytes("audio_size", int64(len(data))))
	result, err := p.runner.Run(ctx, data, modelPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("transcription canceled", logging.Error(err))
			return nil, fmt.Errorf("transcription canceled: %w", err)
		}
		return nil, p.fail(logger, engineError(err))
	}

	segments := captions.ParseString(string(result.Stdout))
	logger.Info("transcription completed",
		logging.Int("segments", len(segments)),
		logging.Duration("engine_duration", result.Duration),
	)
	return segments, nil
}

// ResolveModel maps a requested model name to a file in the models directory.
// Blank names select the default model. Names that would leave the directory
// are reported as not found.
func (p *Pipeline) ResolveModel(requested string) (string, error) {
	_, path, perr := p.resolveModel(requested)
	if perr != nil {
		return "", perr
	}
	return path, nil
}

func (p *Pipeline) resolveModel(requested string) (string, string, *Error) {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = p.cfg.DefaultModel
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return name, "", newError(ErrModelNotFound, services.ErrConfiguration, "resolve model",
			modelNotFoundMessage(name), fmt.Errorf("invalid model name %q", name))
	}
	path := filepath.Join(p.cfg.ModelsDir, name)
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		err = fmt.Errorf("%s is a directory", path)
	}
	if err != nil {
		return name, "", newError(ErrModelNotFound, services.ErrNotFound, "resolve model",
			modelNotFoundMessage(name), err)
	}
	return name, path, nil
}

// Models lists the model files available in the models directory.
func (p *Pipeline) Models() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.ModelsDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "list models", "models directory unreadable", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// DefaultModel returns the model used when a request names none.
func (p *Pipeline) DefaultModel() string {
	return p.cfg.DefaultModel
}

func (p *Pipeline) fail(logger *slog.Logger, perr *Error) *Error {
	attrs := []logging.Attr{
		logging.String("check", perr.Kind.Error()),
		logging.String("class", string(perr.Class())),
		logging.Error(perr.Err),
	}
	if perr.Class() == ClassCaller {
		logger.Warn("transcription rejected", logging.Args(attrs...)...)
		return perr
	}
	logging.ErrorWithContext(logger, "transcription failed", "engine_failure", attrs...)
	return perr
}

func engineError(err error) *Error {
	var exitErr *engine.ExitError
	switch {
	case errors.Is(err, engine.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return newError(ErrEngineFailed, services.ErrTimeout, "run engine",
			"Transcription timed out", err)
	case errors.Is(err, engine.ErrNotFound):
		return newError(ErrEngineNotFound, services.ErrConfiguration, "locate engine",
			"Transcription engine binary not found", err)
	case errors.Is(err, engine.ErrNotExecutable):
		return newError(ErrEngineNotExecutable, services.ErrConfiguration, "locate engine",
			"Transcription engine binary is not executable", err)
	case errors.Is(err, engine.ErrSpawnFailed):
		return newError(ErrSpawnFailed, services.ErrExternalTool, "spawn engine",
			"Failed to start transcription engine", err)
	case errors.Is(err, engine.ErrWriteFailed):
		return newError(ErrEngineWrite, services.ErrExternalTool, "write audio",
			"Failed to write audio to transcription engine", err)
	case errors.As(err, &exitErr):
		return newError(ErrEngineFailed, services.ErrExternalTool, "run engine",
			"Transcription failed: "+strings.TrimSpace(exitErr.Stderr), err)
	default:
		return newError(ErrEngineFailed, services.ErrExternalTool, "run engine",
			"Transcription failed", err)
	}
}

func profileDetail(err error) string {
	var perr *audio.ProfileError
	if !errors.As(err, &perr) || len(perr.Mismatches) == 0 {
		return ""
	}
	return " (got " + strings.Join(perr.Mismatches, ", ") + ")"
}
