package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"kiteready/internal/config"
	"kiteready/internal/deps"
	"kiteready/internal/fileutil"
	"kiteready/internal/logging"
	"kiteready/internal/preflight"
	"kiteready/internal/readiness"
	"kiteready/internal/services"
)

// Oracle answers lifecycle queries and performs remediations against a
// local engine. Remediations are serialized.
type Oracle struct {
	cfg      config.Engine
	api      *apiClient
	download *http.Client
	goos     string
	logger   *slog.Logger

	mu sync.Mutex
}

var _ readiness.Oracle = (*Oracle)(nil)

// New builds an Oracle from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Oracle {
	return &Oracle{
		cfg:      cfg.Engine,
		api:      newAPIClient(cfg.Engine.APIURL, cfg.EngineRequestTimeout()),
		download: &http.Client{Timeout: cfg.EngineDownloadTimeout()},
		goos:     runtime.GOOS,
		logger:   logging.NewComponentLogger(logger, "engine"),
	}
}

// BinaryPath resolves the engine executable.
func (o *Oracle) BinaryPath() (string, error) {
	return deps.Resolve(o.cfg.Binary, o.cfg.InstallDir)
}

// QueryState reports the first unsatisfied lifecycle stage for path.
func (o *Oracle) QueryState(ctx context.Context, path string) (readiness.State, error) {
	logger := logging.WithContext(ctx, o.logger)

	if !slices.Contains(o.cfg.SupportedPlatforms, o.goos) {
		return readiness.Unsupported, nil
	}
	if _, err := o.BinaryPath(); err != nil {
		logger.Debug("engine binary not found", logging.Error(err))
		return readiness.Uninstalled, nil
	}

	running, err := o.running(logger)
	if err != nil {
		return 0, newError(services.ErrExternalTool, "query", 0, "probe engine process", err)
	}
	if !running {
		return readiness.Installed, nil
	}

	ping, err := o.api.get(ctx, pathPing, nil)
	if err != nil || ping.status != http.StatusOK {
		logger.Debug("engine not responding", logging.Error(err), logging.Int("status", ping.status))
		return readiness.Running, nil
	}

	user, err := o.api.get(ctx, pathUser, nil)
	if err != nil {
		return 0, newError(transportMarker(err), "query", 0, "fetch user", err)
	}
	switch user.status {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return readiness.Reachable, nil
	default:
		return 0, newError(statusMarker(user.status), "query", user.status, user.message(), nil)
	}

	if path == "" {
		return readiness.Authenticated, nil
	}

	authorized, err := o.api.get(ctx, pathAuthorized, url.Values{"filename": {path}})
	if err != nil {
		return 0, newError(transportMarker(err), "query", 0, "check permissions", err)
	}
	switch authorized.status {
	case http.StatusOK:
		return readiness.Whitelisted, nil
	case http.StatusForbidden:
		return readiness.Authenticated, nil
	default:
		return 0, newError(statusMarker(authorized.status), "query", authorized.status, authorized.message(), nil)
	}
}

// running checks the lock file first and falls back to the pid file.
func (o *Oracle) running(logger *slog.Logger) (bool, error) {
	held, lockErr := lockHeld(o.cfg.LockPath)
	if lockErr == nil && held {
		return true, nil
	}
	if lockErr != nil {
		logger.Debug("lock probe failed; using pid file", logging.Error(lockErr))
	}
	alive, err := pidAlive(o.cfg.PIDPath)
	if err != nil {
		if lockErr != nil {
			return false, errors.Join(lockErr, err)
		}
		return false, err
	}
	logger.Debug("engine process probed", logging.Bool("lock_held", held), logging.Bool("pid_alive", alive))
	return alive, nil
}

// InstallDaemon downloads the engine into the install directory.
func (o *Oracle) InstallDaemon(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	source := strings.TrimSpace(o.cfg.DownloadURL)
	if source == "" {
		return newError(services.ErrConfiguration, "install", 0, "engine.download_url is not configured", nil)
	}
	target := o.installTarget()

	body, status, err := o.fetch(ctx, source)
	if err != nil {
		if status > 0 {
			return newError(statusMarker(status), "install", status, fmt.Sprintf("download %s", source), err)
		}
		return newError(transportMarker(err), "install", 0, fmt.Sprintf("download %s", source), err)
	}
	defer body.Close()

	result, err := fileutil.WriteAtomic(target, body, 0o755)
	if err != nil {
		return newError(services.ErrConfiguration, "install", 0, fmt.Sprintf("write %s", target), err)
	}

	logging.WithContext(ctx, o.logger).Info("engine installed",
		logging.String(logging.FieldPath, result.Path),
		logging.Int64("bytes", result.Size),
		logging.String("sha256", result.SHA256),
	)
	return nil
}

func (o *Oracle) installTarget() string {
	if filepath.IsAbs(o.cfg.Binary) {
		return o.cfg.Binary
	}
	return filepath.Join(o.cfg.InstallDir, o.cfg.Binary)
}

// fetch opens source. file:// URLs are read from disk.
func (o *Oracle) fetch(ctx context.Context, source string) (io.ReadCloser, int, error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return nil, 0, fmt.Errorf("parse download url: %w", err)
	}
	if parsed.Scheme == "file" {
		file, err := os.Open(parsed.Path)
		if err != nil {
			return nil, 0, err
		}
		return file, 0, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := o.download.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, resp.StatusCode, nil
}

// RunDaemon starts the engine detached. Success means the process started,
// not that the API is reachable yet.
func (o *Oracle) RunDaemon(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	binary, err := o.BinaryPath()
	if err != nil {
		return newError(services.ErrNotFound, "launch", 0, "", err)
	}
	pid, err := launchDetached(binary, o.cfg.LaunchArgs)
	if err != nil {
		return newError(services.ErrExternalTool, "launch", 0, "", err)
	}
	logger := logging.WithContext(ctx, o.logger)
	if err := writePID(o.cfg.PIDPath, pid); err != nil {
		logging.WarnWithContext(logger, "engine pid not recorded", "engine_pid_write_failed",
			logging.Int("pid", pid),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on engine.pid_path"),
			logging.String(logging.FieldImpact, "kiteready stop cannot find the engine"),
		)
	}
	logger.Info("engine launched", logging.String(logging.FieldPath, binary), logging.Int("pid", pid))
	return nil
}

// AuthenticateUser logs in through the engine's local API.
func (o *Oracle) AuthenticateUser(ctx context.Context, email, password string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return newError(services.ErrValidation, "login", 0, "email and password are required", nil)
	}

	resp, err := o.api.postForm(ctx, pathLogin, url.Values{"email": {email}, "password": {password}})
	if err != nil {
		return newError(transportMarker(err), "login", 0, "", err)
	}
	if resp.status != http.StatusOK {
		return newError(statusMarker(resp.status), "login", resp.status, resp.message(), nil)
	}
	logging.WithContext(ctx, o.logger).Info("engine login succeeded", logging.String("email", email))
	return nil
}

// EnableDirectory adds path to the engine's whitelist.
func (o *Oracle) EnableDirectory(ctx context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if check := preflight.CheckDirectoryAccess("directory", path); !check.Passed {
		return newError(services.ErrValidation, "whitelist", 0, check.Detail, nil)
	}

	resp, err := o.api.putJSON(ctx, pathWhitelist, map[string]string{"path": path})
	if err != nil {
		return newError(transportMarker(err), "whitelist", 0, "", err)
	}
	switch resp.status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		return newError(statusMarker(resp.status), "whitelist", resp.status, resp.message(), nil)
	}
	logging.WithContext(ctx, o.logger).Info("directory enabled", logging.String(logging.FieldPath, path))
	return nil
}

// StopDaemon terminates the engine recorded in the pid file.
func (o *Oracle) StopDaemon(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	pid, err := terminate(o.cfg.PIDPath, o.cfg.LockPath)
	if err != nil {
		return 0, newError(services.ErrExternalTool, "stop", 0, "", err)
	}
	logging.WithContext(ctx, o.logger).Info("engine stopped", logging.Int("pid", pid))
	return pid, nil
}
