package readiness

import "context"

// Oracle reports the engine's lifecycle state and performs remediations.
// Implementations own and serialize their underlying resources.
type Oracle interface {
	// QueryState returns the state for path. An empty path asks for the
	// path-independent state.
	QueryState(ctx context.Context, path string) (State, error)
	InstallDaemon(ctx context.Context) error
	RunDaemon(ctx context.Context) error
	AuthenticateUser(ctx context.Context, email, password string) error
	EnableDirectory(ctx context.Context, path string) error
}

// Notifier presents user-facing messages.
type Notifier interface {
	ShowError(title string, opts Options) Handle
	ShowWarning(title string, opts Options) Handle
}

// Handle controls a shown notification. OnDismiss callbacks run once, when
// the notification is dismissed by the user or by Dismiss.
type Handle interface {
	Dismiss()
	OnDismiss(func())
}

// Options describe a notification body.
type Options struct {
	Description string
	Icon        string
	Dismissable bool
	Buttons     []Button
}

// Button is an action offered on a notification. Clicking it does not
// dismiss the notification; OnClick receives the owning handle to do so.
type Button struct {
	Text    string
	OnClick func(Handle)
}

// Telemetry records named events. Record must not block on I/O or panic.
type Telemetry interface {
	Record(event string, attrs map[string]string)
}

// EditorContext exposes the file behind the focused document, or "" when
// no file-backed document is focused.
type EditorContext interface {
	ActiveFilePath() string
}

// Credentials identify the user to the engine.
type Credentials struct {
	Email    string
	Password string
}

// CredentialSource supplies login credentials on demand. An error means the
// user declined to provide them.
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Diagnostic is implemented by errors that carry a structured payload for
// display in failure notifications.
type Diagnostic interface {
	DiagnosticPayload() any
}
