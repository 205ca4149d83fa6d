package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"kiteready/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The current platform is always supported and the settling delay is zero.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Engine.InstallDir = filepath.Join(base, "kite", "bin")
	cfgVal.Engine.LockPath = filepath.Join(base, "kite", "kited.lock")
	cfgVal.Engine.PIDPath = filepath.Join(base, "kite", "kited.pid")
	cfgVal.Engine.APIURL = "http://127.0.0.1:1"
	cfgVal.Engine.RequestTimeout = 2
	cfgVal.Engine.SupportedPlatforms = []string{runtime.GOOS}
	cfgVal.Readiness.SettleDelaySeconds = 0
	cfgVal.Telemetry.JournalPath = filepath.Join(base, "state", "events.db")
	cfgVal.Telemetry.BufferSize = 16

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

// WithAPIURL points the engine client at url, typically an httptest server.
func WithAPIURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.APIURL = url
	}
}

// WithDownloadURL overrides the installer download location.
func WithDownloadURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.DownloadURL = url
	}
}

// WithPlatforms replaces the supported platform list.
func WithPlatforms(platforms ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.SupportedPlatforms = platforms
	}
}

// WithInstalledEngine writes an executable engine binary into the install
// directory. An empty script installs one that exits immediately.
func WithInstalledEngine(script string) ConfigOption {
	return func(b *configBuilder) {
		if script == "" {
			script = "#!/bin/sh\nexit 0\n"
		}
		target := filepath.Join(b.cfg.Engine.InstallDir, b.cfg.Engine.Binary)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			b.t.Fatalf("mkdir install dir: %v", err)
		}
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write engine stub: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the engine binary is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.Engine.Binary}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
