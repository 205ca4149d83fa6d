package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"kiteready/internal/config"
	"kiteready/internal/testsupport"
)

// fakeEngine answers the engine API. A successful login flips the user
// endpoint to logged in.
type fakeEngine struct {
	mu          sync.Mutex
	loggedIn    bool
	authorized  bool
	loginEmail  string
	loginPass   string
	whitelisted []string
}

func (f *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/clientapi/ping":
		w.WriteHeader(http.StatusOK)
	case "/clientapi/user":
		if !f.loggedIn {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	case "/clientapi/permissions/authorized":
		if !f.authorized {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	case "/api/account/login-desktop":
		_ = r.ParseForm()
		f.loginEmail = r.PostForm.Get("email")
		f.loginPass = r.PostForm.Get("password")
		f.loggedIn = true
		w.WriteHeader(http.StatusOK)
	case "/clientapi/permissions/whitelist":
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.whitelisted = append(f.whitelisted, body.Path)
		f.authorized = true
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	engine     *fakeEngine
}

// setupCLITestEnv writes a config pointing at a fake engine API and
// isolates the process environment.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", "")
	for _, key := range []string{"KITE_API_URL", "KITE_EMAIL", "KITE_PASSWORD", "KITEREADY_NTFY_TOPIC", "KITEREADY_ACTIVE_FILE"} {
		t.Setenv(key, "")
	}

	engine := &fakeEngine{}
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	opts = append([]testsupport.ConfigOption{testsupport.WithAPIURL(srv.URL)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, engine: engine}
}

// holdEngineLock makes the engine look running for the rest of the test.
func (e *cliTestEnv) holdEngineLock(t *testing.T) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(e.cfg.Engine.LockPath), 0o755); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(e.cfg.Engine.LockPath)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("take engine lock: %v", err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })
}

func (e *cliTestEnv) set(fn func(*fakeEngine)) {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	fn(e.engine)
}

func (e *cliTestEnv) snapshot() fakeEngine {
	e.engine.mu.Lock()
	defer e.engine.mu.Unlock()
	return fakeEngine{
		loggedIn:    e.engine.loggedIn,
		authorized:  e.engine.authorized,
		loginEmail:  e.engine.loginEmail,
		loginPass:   e.engine.loginPass,
		whitelisted: append([]string(nil), e.engine.whitelisted...),
	}
}

func runCLI(t *testing.T, stdin string, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeSourceFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project", "main.py")
	testsupport.WriteFile(t, path, 12)
	return path
}
