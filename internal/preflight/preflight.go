package preflight

import (
	"context"

	"kiteready/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every environment check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckWritableTarget("Engine install directory", cfg.Engine.InstallDir),
		CheckEngineBinary(cfg),
		CheckEndpoint(ctx, "Engine API", cfg.Engine.APIURL+"/clientapi/ping", cfg.EngineRequestTimeout()),
	}
	return results
}
