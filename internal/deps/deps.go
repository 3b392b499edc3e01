package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"scribe/internal/config"
	"scribe/internal/engine"
)

// Requirement defines an external dependency scribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the executables the configuration depends on.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{
			Name:        "whisper-cli",
			Command:     cfg.Engine.Binary,
			Description: "Speech-to-text engine",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Commands containing a path separator are checked in place; bare names are
// looked up on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		case strings.ContainsRune(cmd, filepath.Separator):
			if err := engine.CheckBinary(cmd); err != nil {
				status.Detail = binaryDetail(cmd, err)
			} else {
				status.Available = true
			}
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

func binaryDetail(cmd string, err error) string {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return fmt.Sprintf("binary %q not found", cmd)
	case errors.Is(err, engine.ErrNotExecutable):
		return fmt.Sprintf("binary %q is not executable", cmd)
	default:
		return err.Error()
	}
}

// CheckModels verifies the models directory is readable and holds the default model.
func CheckModels(dir, defaultModel string) Status {
	status := Status{
		Name:        "models",
		Command:     dir,
		Description: "Model directory",
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			status.Detail = "directory does not exist"
		} else {
			status.Detail = fmt.Sprintf("stat failed (%v)", err)
		}
		return status
	}
	if !info.IsDir() {
		status.Detail = "not a directory"
		return status
	}
	if err := unix.Access(dir, unix.R_OK|unix.X_OK); err != nil {
		status.Detail = fmt.Sprintf("not readable (%v)", err)
		return status
	}
	if defaultModel = strings.TrimSpace(defaultModel); defaultModel != "" {
		modelInfo, err := os.Stat(filepath.Join(dir, defaultModel))
		if err != nil || !modelInfo.Mode().IsRegular() {
			status.Detail = fmt.Sprintf("default model %q missing", defaultModel)
			return status
		}
	}
	status.Available = true
	return status
}

// Check reports every dependency of a running service.
func Check(cfg *config.Config) []Status {
	if cfg == nil {
		return nil
	}
	statuses := CheckBinaries(Requirements(cfg))
	return append(statuses, CheckModels(cfg.Paths.ModelsDir, cfg.Engine.DefaultModel))
}

// Healthy reports whether every required dependency is available.
func Healthy(statuses []Status) bool {
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			return false
		}
	}
	return true
}
