package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ModelsDir = filepath.Join(base, "models")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Engine.Binary = filepath.Join(base, "bin", "whisper-cli")
	cfgVal.Server.ShutdownTimeoutSeconds = 1

	if err := os.MkdirAll(cfgVal.Paths.ModelsDir, 0o755); err != nil {
		t.Fatalf("mkdir models dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithModels writes placeholder model files into the models directory.
func WithModels(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.ModelsDir, name), 64)
		}
	}
}

// WithEngine installs a stub engine built from the given script body at the
// configured engine binary path.
func WithEngine(stub EngineStub) ConfigOption {
	return func(b *configBuilder) {
		WriteEngineStub(b.t, b.cfg.Engine.Binary, stub)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ModelsDir)
}
