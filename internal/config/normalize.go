package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SCRIBE_MODELS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ModelsDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.ModelsDir) == "" {
		c.Paths.ModelsDir = defaultModelsDir
	}
	var err error
	if c.Paths.ModelsDir, err = expandPath(c.Paths.ModelsDir); err != nil {
		return fmt.Errorf("paths.models_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	if value, ok := os.LookupEnv("SCRIBE_ENGINE_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Engine.Binary = strings.TrimSpace(value)
	}
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	var err error
	if c.Engine.Binary, err = resolveBinary(c.Engine.Binary); err != nil {
		return fmt.Errorf("engine.binary: %w", err)
	}
	c.Engine.Language = strings.ToLower(strings.TrimSpace(c.Engine.Language))
	if c.Engine.Language == "" {
		c.Engine.Language = defaultEngineLanguage
	}
	c.Engine.DefaultModel = strings.TrimSpace(c.Engine.DefaultModel)
	if c.Engine.DefaultModel == "" {
		c.Engine.DefaultModel = defaultEngineModel
	}
	if c.Engine.TimeoutSeconds < 0 {
		c.Engine.TimeoutSeconds = 0
	}
	return nil
}

// resolveBinary looks bare command names up on $PATH. A bare name that is not
// found is kept as is so dependency checks can report it by name.
func resolveBinary(value string) (string, error) {
	if strings.ContainsRune(value, filepath.Separator) || strings.HasPrefix(value, "~") {
		return expandPath(value)
	}
	path, err := exec.LookPath(value)
	if err != nil {
		return value, nil
	}
	return filepath.Abs(path)
}

func (c *Config) normalizeServer() {
	if c.Server.MaxUploadMiB <= 0 {
		c.Server.MaxUploadMiB = defaultMaxUploadMiB
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = defaultShutdownTimeoutSeconds
	}
	origins := make([]string, 0, len(c.Server.AllowedOrigins))
	seen := make(map[string]struct{}, len(c.Server.AllowedOrigins))
	for _, origin := range c.Server.AllowedOrigins {
		normalized := strings.TrimRight(strings.TrimSpace(origin), "/")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		origins = append(origins, normalized)
	}
	c.Server.AllowedOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
