package preflight

import (
	"scribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and network checks for the given config.
// The bind check is skipped when skipBind is set, e.g. while a server is
// already listening on the address.
func RunAll(cfg *config.Config, skipBind bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryReadable("Models directory", cfg.Paths.ModelsDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if !skipBind {
		results = append(results, CheckBindAddress("API bind", cfg.Paths.APIBind))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
