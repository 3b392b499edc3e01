package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/text/language"
)

// AutoLanguage asks the engine to detect the spoken language itself.
const AutoLanguage = "auto"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ModelsDir == "" {
		return errors.New("paths.models_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind: %w", err)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Binary == "" {
		return errors.New("engine.binary must be set")
	}
	if strings.ContainsAny(c.Engine.DefaultModel, `/\`) || c.Engine.DefaultModel == ".." {
		return fmt.Errorf("engine.default_model must be a file name inside paths.models_dir, got %q", c.Engine.DefaultModel)
	}
	if c.Engine.Language != AutoLanguage {
		tag, err := language.Parse(c.Engine.Language)
		if err != nil {
			return fmt.Errorf("engine.language: %q is not a valid language code: %w", c.Engine.Language, err)
		}
		if base, conf := tag.Base(); conf == language.No || base.String() != c.Engine.Language {
			return fmt.Errorf("engine.language: expected a bare ISO 639 code such as %q, got %q", base.String(), c.Engine.Language)
		}
	}
	return nil
}
