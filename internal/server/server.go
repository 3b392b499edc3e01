package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"scribe/internal/captions"
	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/logging"
	"scribe/internal/transcribe"
)

// ErrAlreadyRunning is returned when another server holds the instance lock.
var ErrAlreadyRunning = errors.New("another scribe server instance is already running")

// Transcriber runs the transcription pipeline for one request.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, model string) ([]captions.Segment, error)
	Models() ([]string, error)
	DefaultModel() string
}

// Option customizes a Server.
type Option func(*Server)

// WithTranscriber replaces the pipeline (used in tests).
func WithTranscriber(t Transcriber) Option {
	return func(s *Server) {
		if t != nil {
			s.pipeline = t
		}
	}
}

// WithDependencyCheck replaces the dependency probe used by /healthz.
func WithDependencyCheck(check func() []deps.Status) Option {
	return func(s *Server) {
		if check != nil {
			s.checkDeps = check
		}
	}
}

// Server is the HTTP front end of the transcription pipeline.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	pipeline  Transcriber
	checkDeps func() []deps.Status
	now       func() time.Time

	lockPath string
	lock     *flock.Flock
	http     *http.Server

	ready chan struct{}
	mu    sync.Mutex
	addr  string
}

// New constructs a server for cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server requires config")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("server requires an api_bind address")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "scribe.lock")
	s := &Server{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		checkDeps: func() []deps.Status { return deps.Check(cfg) },
		now:       time.Now,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pipeline == nil {
		s.pipeline = transcribe.New(transcribe.ConfigFrom(cfg), transcribe.WithLogger(logger))
	}

	// Transcriptions can run for minutes, so only header reads and idle
	// connections are bounded; the engine timeout bounds the work itself.
	s.http = &http.Server{
		Addr:              bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Run holds the instance lock and serves until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.http.Serve(listener)
	}()
	s.logger.Info("api server listening",
		logging.String("address", s.Addr()),
		logging.String("lock", s.lockPath),
		logging.String("models_dir", s.cfg.Paths.ModelsDir),
	)
	close(s.ready)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown incomplete", logging.Error(err))
		_ = s.http.Close()
	}
	<-serveErr
	s.logger.Info("api server stopped")
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address, or "" before Run binds.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
