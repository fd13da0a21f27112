package preflight

import (
	"context"

	"videoqa/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config. The journal
// check is skipped when diagnostics are disabled.
func RunAll(ctx context.Context, cfg *config.Config, lister Lister) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckService(ctx, cfg.Service.BaseURL, lister))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Diagnostics.Enabled {
		results = append(results, CheckDiagnostics(cfg))
	} else {
		results = append(results, Result{Name: diagnosticsCheckName, Passed: true, Detail: "Disabled"})
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
