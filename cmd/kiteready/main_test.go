package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kiteready/internal/testsupport"
)

func TestEnsureInstallsLaunchesAndRecordsEvents(t *testing.T) {
	download := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("#!/bin/sh\nexit 0\n"))
	}))
	defer download.Close()

	env := setupCLITestEnv(t, testsupport.WithDownloadURL(download.URL))
	env.holdEngineLock(t)
	env.set(func(f *fakeEngine) {
		f.loggedIn = true
		f.authorized = true
	})
	file := writeSourceFile(t)

	out, err := runCLI(t, "1\n", env.configPath, "ensure", file)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !strings.Contains(out, "Kite is not installed") || !strings.Contains(out, "1) Install Kite") {
		t.Fatalf("expected install warning, got:\n%s", out)
	}
	if !strings.Contains(out, "Kite is ready.") {
		t.Fatalf("expected ready message after install, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Engine.InstallDir, env.cfg.Engine.Binary)); err != nil {
		t.Fatalf("expected installed engine: %v", err)
	}

	out, err = runCLI(t, "", env.configPath, "events", "--json")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	var events []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("decode events: %v\n%s", err, out)
	}
	var names []string
	for _, event := range events {
		names = append(names, event.Name)
	}
	want := []string{"kite_ready", "kite_launched", "kite_installed", "kite_not_installed"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", names, want)
	}
}

func TestEnsureLoginPromptsForPassword(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithInstalledEngine(""))
	env.holdEngineLock(t)

	out, err := runCLI(t, "1\nsecret\n", env.configPath, "ensure", "--email", "dev@example.com")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !strings.Contains(out, "You need to login to Kite") {
		t.Fatalf("expected login warning, got:\n%s", out)
	}
	if !strings.Contains(out, "Password for dev@example.com: ") {
		t.Fatalf("expected password prompt, got:\n%s", out)
	}
	got := env.snapshot()
	if got.loginEmail != "dev@example.com" || got.loginPass != "secret" {
		t.Fatalf("unexpected login request: %q / %q", got.loginEmail, got.loginPass)
	}
}

func TestLoginCommandReadsStdin(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithInstalledEngine(""))
	env.holdEngineLock(t)

	out, err := runCLI(t, "dev@example.com\nsecret\n", env.configPath, "login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Kite email: ") {
		t.Fatalf("expected email prompt, got:\n%s", out)
	}
	if got := env.snapshot(); got.loginEmail != "dev@example.com" || got.loginPass != "secret" {
		t.Fatalf("unexpected login request: %q / %q", got.loginEmail, got.loginPass)
	}
}

func TestInstallFailureOffersRetry(t *testing.T) {
	download := httptest.NewServer(http.NotFoundHandler())
	defer download.Close()

	env := setupCLITestEnv(t, testsupport.WithDownloadURL(download.URL))

	out, err := runCLI(t, "1\nd\n", env.configPath, "install")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if n := strings.Count(out, "Unable to install Kite"); n != 2 {
		t.Fatalf("expected the failure to be shown twice (initial + retry), got %d:\n%s", n, out)
	}
	if !strings.Contains(out, `"code":"not_found"`) {
		t.Fatalf("expected diagnostic payload in description, got:\n%s", out)
	}
	if !strings.Contains(out, "1) Retry") {
		t.Fatalf("expected retry option, got:\n%s", out)
	}
}

func TestEnableCommandWhitelistsDirectory(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithInstalledEngine(""))
	env.holdEngineLock(t)
	env.set(func(f *fakeEngine) { f.loggedIn = true })
	dir := t.TempDir()

	if _, err := runCLI(t, "", env.configPath, "enable", dir); err != nil {
		t.Fatalf("enable: %v", err)
	}
	got := env.snapshot()
	if len(got.whitelisted) != 1 || got.whitelisted[0] != dir {
		t.Fatalf("unexpected whitelist requests: %v", got.whitelisted)
	}
}

func TestStatusReportsStatePerPath(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithInstalledEngine(""))
	env.holdEngineLock(t)
	env.set(func(f *fakeEngine) { f.loggedIn = true })
	file := writeSourceFile(t)

	out, err := runCLI(t, "", env.configPath, "status", "--json", file)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if len(report.Checks) != 5 {
		t.Fatalf("expected 5 environment checks, got %d", len(report.Checks))
	}
	if len(report.Paths) != 1 || report.Paths[0].Path != file || report.Paths[0].State != "authenticated" {
		t.Fatalf("unexpected path status: %+v", report.Paths)
	}

	out, err = runCLI(t, "", env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "== Environment ==") || !strings.Contains(out, "(no file)") {
		t.Fatalf("unexpected status output:\n%s", out)
	}
}

func TestStatusUninstalledEngine(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "", env.configPath, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if report.Paths[0].State != "uninstalled" || report.Paths[0].Ready {
		t.Fatalf("unexpected path status: %+v", report.Paths[0])
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "kiteready.toml")

	out, err := runCLI(t, "", "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := runCLI(t, "", "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, err = runCLI(t, "", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, target) {
		t.Fatalf("unexpected validate output: %q", out)
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "", env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, env.cfg.Engine.APIURL) {
		t.Fatalf("expected api url in output:\n%s", out)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "", env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "not configured") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestTestNotifyPublishes(t *testing.T) {
	received := make(chan string, 1)
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.Header.Get("Title")
		w.WriteHeader(http.StatusOK)
	}))
	defer ntfy.Close()

	env := setupCLITestEnv(t)
	t.Setenv("KITEREADY_NTFY_TOPIC", ntfy.URL)

	out, err := runCLI(t, "", env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "Test notification sent") {
		t.Fatalf("unexpected output: %q", out)
	}
	if title := <-received; title != "kiteready - Test" {
		t.Fatalf("unexpected title header: %q", title)
	}
}

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "kiteready.log")
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, err := runCLI(t, "", env.configPath, "logs", "--lines", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected logs output: %q", out)
	}
}
