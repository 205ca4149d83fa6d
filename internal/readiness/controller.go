package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"kiteready/internal/logging"
	"kiteready/internal/services"
)

// DefaultSettleDelay is the wait between a successful launch and the next
// state check.
const DefaultSettleDelay = 5 * time.Second

// ErrNoCredentials is returned by the fallback credential source used when
// none is configured.
var ErrNoCredentials = errors.New("no credential source configured")

type action string

const (
	actionCheck        action = "check"
	actionInstall      action = "install"
	actionLaunch       action = "launch"
	actionSettle       action = "settle"
	actionLogin        action = "login"
	actionAuthenticate action = "authenticate"
	actionWhitelist    action = "whitelist"
)

// remediation is one step of the run loop. dir and creds are carried
// unchanged into retries.
type remediation struct {
	action action
	dir    string
	creds  Credentials
}

// Deps wires the controller to its collaborators. Oracle and Notifier are
// required.
type Deps struct {
	Oracle      Oracle
	Notifier    Notifier
	Telemetry   Telemetry
	Editor      EditorContext
	Credentials CredentialSource
	Logger      *slog.Logger
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSettleDelay overrides DefaultSettleDelay. Zero or negative values
// skip the wait.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.settleDelay = d
	}
}

// WithTimer replaces time.After for the settling delay.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Controller) {
		if after != nil {
			c.after = after
		}
	}
}

// Controller maps lifecycle states to notifications and runs remediations.
// Blocking methods return once their chain of steps stops, which happens at
// the next notification, at readiness, or on a failure. Button clicks start
// new chains on tracked goroutines; Wait blocks until they finish.
type Controller struct {
	oracle      Oracle
	notifier    Notifier
	telemetry   Telemetry
	editor      EditorContext
	credentials CredentialSource
	logger      *slog.Logger

	settleDelay time.Duration
	after       func(time.Duration) <-chan time.Time

	wg sync.WaitGroup
}

// New constructs a Controller.
func New(deps Deps, opts ...Option) (*Controller, error) {
	if deps.Oracle == nil {
		return nil, errors.New("readiness: oracle is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("readiness: notifier is required")
	}
	c := &Controller{
		oracle:      deps.Oracle,
		notifier:    deps.Notifier,
		telemetry:   deps.Telemetry,
		editor:      deps.Editor,
		credentials: deps.Credentials,
		logger:      logging.NewComponentLogger(deps.Logger, "readiness"),
		settleDelay: DefaultSettleDelay,
		after:       time.After,
	}
	if c.telemetry == nil {
		c.telemetry = discardTelemetry{}
	}
	if c.editor == nil {
		c.editor = noEditor{}
	}
	if c.credentials == nil {
		c.credentials = noCredentials{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Ensure checks the engine state for the active file and presents the
// matching notification.
func (c *Controller) Ensure(ctx context.Context) {
	c.run(ctx, remediation{action: actionCheck})
}

// Trigger runs Ensure on a tracked goroutine.
func (c *Controller) Trigger(ctx context.Context) {
	c.spawn(ctx, remediation{action: actionCheck})
}

// Install installs the engine and, on success, launches it.
func (c *Controller) Install(ctx context.Context) {
	c.run(ctx, remediation{action: actionInstall})
}

// Launch starts the engine and checks again after the settling delay.
func (c *Controller) Launch(ctx context.Context) {
	c.run(ctx, remediation{action: actionLaunch})
}

// Login asks the credential source for credentials, then authenticates.
func (c *Controller) Login(ctx context.Context) {
	c.run(ctx, remediation{action: actionLogin})
}

// Authenticate logs in with creds and checks again.
func (c *Controller) Authenticate(ctx context.Context, creds Credentials) {
	c.run(ctx, remediation{action: actionAuthenticate, creds: creds})
}

// Whitelist enables the engine for dir and checks again.
func (c *Controller) Whitelist(ctx context.Context, dir string) {
	c.run(ctx, remediation{action: actionWhitelist, dir: dir})
}

// Wait blocks until every chain started by Trigger or a button click has
// finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) spawn(ctx context.Context, r remediation) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx, r)
	}()
}

func (c *Controller) run(ctx context.Context, r remediation) {
	for {
		next, ok := c.step(services.WithAction(ctx, string(r.action)), r)
		if !ok {
			return
		}
		r = next
	}
}

func (c *Controller) step(ctx context.Context, r remediation) (remediation, bool) {
	logger := logging.WithContext(ctx, c.logger)
	check := remediation{action: actionCheck}

	switch r.action {
	case actionCheck:
		c.check(ctx)
		return remediation{}, false

	case actionInstall:
		logger.Info("installing kite engine")
		if err := c.oracle.InstallDaemon(ctx); err != nil {
			c.fail(ctx, r, err)
			return remediation{}, false
		}
		c.record(EventInstalled, nil)
		return remediation{action: actionLaunch}, true

	case actionLaunch:
		logger.Info("starting kite engine")
		if err := c.oracle.RunDaemon(ctx); err != nil {
			c.fail(ctx, r, err)
			return remediation{}, false
		}
		c.record(EventLaunched, nil)
		return remediation{action: actionSettle}, true

	case actionSettle:
		if !c.settle(ctx) {
			logger.Info("settling delay abandoned",
				logging.Duration("settle_delay", c.settleDelay),
				logging.String("reason", context.Cause(ctx).Error()),
			)
			return remediation{}, false
		}
		return check, true

	case actionLogin:
		creds, err := c.credentials.Credentials(ctx)
		if err != nil {
			logger.Info("login cancelled", logging.Error(err))
			c.record(EventLoginCancelled, map[string]string{"error": Describe(err)})
			return remediation{}, false
		}
		return remediation{action: actionAuthenticate, creds: creds}, true

	case actionAuthenticate:
		logger.Info("logging in to kite", logging.String("email", r.creds.Email))
		if err := c.oracle.AuthenticateUser(ctx, r.creds.Email, r.creds.Password); err != nil {
			c.fail(ctx, r, err)
			return remediation{}, false
		}
		c.record(EventLoggedIn, nil)
		return check, true

	case actionWhitelist:
		logger.Info("enabling kite for directory", logging.String(logging.FieldPath, r.dir))
		if err := c.oracle.EnableDirectory(ctx, r.dir); err != nil {
			c.fail(ctx, r, err)
			return remediation{}, false
		}
		c.record(EventWhitelisted, map[string]string{"path": r.dir})
		return check, true
	}

	logging.ErrorWithContext(logger, "unknown remediation step", "readiness_unknown_step",
		logging.String(logging.FieldAction, string(r.action)),
	)
	return remediation{}, false
}

func (c *Controller) settle(ctx context.Context) bool {
	if c.settleDelay <= 0 {
		return true
	}
	select {
	case <-c.after(c.settleDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) check(ctx context.Context) {
	logger := logging.WithContext(ctx, c.logger)
	path := c.editor.ActiveFilePath()

	state, err := c.oracle.QueryState(ctx, path)
	if err == nil && !state.Valid() {
		err = fmt.Errorf("oracle reported unknown state %d", int(state))
	}
	if err != nil {
		logging.WarnWithContext(logger, "kite state check failed", "readiness_check_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run kiteready status for engine diagnostics"),
			logging.String(logging.FieldImpact, "no notification shown for this check"),
		)
		c.record(EventCheckFailed, map[string]string{"error": Describe(err)})
		return
	}

	logger.Debug("kite state checked",
		logging.String(logging.FieldState, state.String()),
		logging.String(logging.FieldPath, path),
	)

	switch state {
	case Unsupported:
		c.record(EventUnsupported, nil)
		c.show(ctx, c.notifier.ShowError, TitleUnsupported, Options{
			Description: descUnsupported,
			Dismissable: true,
		})

	case Uninstalled:
		c.record(EventNotInstalled, nil)
		c.show(ctx, c.notifier.ShowWarning, TitleNotInstalled, Options{
			Description: descNotInstalled,
			Icon:        kiteIcon,
			Dismissable: true,
			Buttons:     []Button{c.button(ctx, ButtonInstall, remediation{action: actionInstall})},
		})

	case Installed:
		c.record(EventNotRunning, nil)
		c.show(ctx, c.notifier.ShowWarning, TitleNotRunning, Options{
			Description: descNotRunning,
			Icon:        kiteIcon,
			Dismissable: true,
			Buttons:     []Button{c.button(ctx, ButtonStart, remediation{action: actionLaunch})},
		})

	case Running:
		c.record(EventUnreachable, nil)
		c.show(ctx, c.notifier.ShowError, TitleUnreachable, Options{
			Description: descUnreachable,
			Dismissable: true,
		})

	case Reachable:
		c.record(EventNotLoggedIn, nil)
		c.show(ctx, c.notifier.ShowWarning, TitleNotLoggedIn, Options{
			Description: descNotLoggedIn,
			Icon:        kiteIcon,
			Dismissable: true,
			Buttons:     []Button{c.button(ctx, ButtonLogin, remediation{action: actionLogin})},
		})

	case Authenticated:
		if path == "" {
			c.record(EventNotWhitelistedNoFile, nil)
			return
		}
		dir := filepath.Dir(path)
		c.record(EventNotWhitelisted, map[string]string{"path": dir})
		c.show(ctx, c.notifier.ShowWarning, TitleNotWhitelisted, Options{
			Description: descNotWhitelisted,
			Icon:        kiteIcon,
			Dismissable: true,
			Buttons:     []Button{c.button(ctx, EnableButton(dir), remediation{action: actionWhitelist, dir: dir})},
		})

	case Whitelisted:
		c.record(EventReady, nil)
	}
}

func (c *Controller) fail(ctx context.Context, r remediation, err error) {
	var title, event string
	switch r.action {
	case actionInstall:
		title, event = TitleInstallFailed, EventInstallFailed
	case actionLaunch:
		title, event = TitleLaunchFailed, EventLaunchFailed
	case actionAuthenticate:
		title, event = TitleLoginFailed, EventLoginFailed
	case actionWhitelist:
		title, event = EnableFailedTitle(r.dir), EventWhitelistFailed
	default:
		title, event = "Kite "+string(r.action)+" failed", "kite_"+string(r.action)+"_failed"
	}

	description := Describe(err)
	attrs := map[string]string{"error": description}
	if r.dir != "" {
		attrs["path"] = r.dir
	}

	logging.WarnWithContext(logging.WithContext(ctx, c.logger), title, "readiness_"+string(r.action)+"_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "use the Retry button to try again"),
		logging.String(logging.FieldImpact, "kite stays unavailable until the step succeeds"),
	)
	c.record(event, attrs)
	c.show(ctx, c.notifier.ShowError, title, Options{
		Description: description,
		Dismissable: true,
		Buttons:     []Button{c.button(ctx, ButtonRetry, r)},
	})
}

// button dismisses its notification and starts r on a new chain.
func (c *Controller) button(ctx context.Context, text string, r remediation) Button {
	return Button{
		Text: text,
		OnClick: func(h Handle) {
			if h != nil {
				h.Dismiss()
			}
			c.spawn(ctx, r)
		},
	}
}

func (c *Controller) show(ctx context.Context, present func(string, Options) Handle, title string, opts Options) {
	h := present(title, opts)
	if h == nil {
		return
	}
	logger := logging.WithContext(ctx, c.logger)
	h.OnDismiss(func() {
		logger.Debug("notification dismissed", logging.String("title", title))
	})
}

func (c *Controller) record(event string, attrs map[string]string) {
	c.telemetry.Record(event, attrs)
}

type discardTelemetry struct{}

func (discardTelemetry) Record(string, map[string]string) {}

type noEditor struct{}

func (noEditor) ActiveFilePath() string { return "" }

type noCredentials struct{}

func (noCredentials) Credentials(context.Context) (Credentials, error) {
	return Credentials{}, ErrNoCredentials
}
