package readiness

import (
	"encoding/json"
	"errors"
	"fmt"
)

const kiteIcon = "kite"

// Notification titles.
const (
	TitleUnsupported    = "Kite is not supported on this platform"
	TitleNotInstalled   = "Kite is not installed"
	TitleNotRunning     = "Kite is not running"
	TitleUnreachable    = "Kite is running but not reachable"
	TitleNotLoggedIn    = "You need to login to Kite"
	TitleNotWhitelisted = "Kite is not enabled for the current directory"
	TitleInstallFailed  = "Unable to install Kite"
	TitleLaunchFailed   = "Unable to start Kite"
	TitleLoginFailed    = "Unable to login to Kite"
)

// Button labels.
const (
	ButtonInstall = "Install Kite"
	ButtonStart   = "Start Kite"
	ButtonLogin   = "Login"
	ButtonRetry   = "Retry"
)

const (
	descUnsupported    = "Kite only supports macOS and Linux."
	descNotInstalled   = "Kite provides completions for this editor once the engine is installed."
	descNotRunning     = "Start the Kite engine to get completions."
	descUnreachable    = "The Kite engine is running but does not respond. Quit the Kite process and try again."
	descNotLoggedIn    = "Login to Kite to get completions."
	descNotWhitelisted = "Kite only provides completions for directories you enable."
)

// Telemetry event names.
const (
	EventUnsupported          = "kite_unsupported"
	EventNotInstalled         = "kite_not_installed"
	EventNotRunning           = "kite_not_running"
	EventUnreachable          = "kite_unreachable"
	EventNotLoggedIn          = "kite_not_logged_in"
	EventNotWhitelisted       = "kite_not_whitelisted"
	EventNotWhitelistedNoFile = "kite_not_whitelisted_no_file"
	EventReady                = "kite_ready"
	EventCheckFailed          = "kite_check_failed"

	EventInstalled       = "kite_installed"
	EventInstallFailed   = "kite_install_failed"
	EventLaunched        = "kite_launched"
	EventLaunchFailed    = "kite_launch_failed"
	EventLoggedIn        = "kite_logged_in"
	EventLoginFailed     = "kite_login_failed"
	EventLoginCancelled  = "kite_login_cancelled"
	EventWhitelisted     = "kite_whitelisted"
	EventWhitelistFailed = "kite_whitelist_failed"
)

// EnableButton is the label offered for enabling dir.
func EnableButton(dir string) string {
	return "Enable Kite for " + dir
}

// EnableFailedTitle is the title shown when enabling dir fails.
func EnableFailedTitle(dir string) string {
	return "Unable to enable Kite for " + dir
}

// Describe renders err for a failure notification. Errors carrying a
// Diagnostic payload are shown as compact JSON; anything else falls back to
// the error text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var diag Diagnostic
	if errors.As(err, &diag) {
		payload, marshalErr := json.Marshal(diag.DiagnosticPayload())
		if marshalErr == nil {
			return string(payload)
		}
		return fmt.Sprintf("%v (unserializable diagnostic: %v)", err, marshalErr)
	}
	return err.Error()
}
