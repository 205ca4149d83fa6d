package config

const (
	defaultConfigPath            = "~/.config/kiteready/config.toml"
	defaultLogDir                = "~/.local/share/kiteready/logs"
	defaultStateDir              = "~/.local/share/kiteready"
	defaultJournalFile           = "events.db"
	defaultEngineBinary          = "kited"
	defaultEngineInstallDir      = "~/.local/share/kite/bin"
	defaultEngineDownloadURL     = "https://linux.kite.com/dls/linux/current"
	defaultEngineDownloadTimeout = 300
	defaultEngineLockPath        = "~/.local/share/kite/kited.lock"
	defaultEnginePIDPath         = "~/.local/share/kite/kited.pid"
	defaultEngineAPIURL          = "http://127.0.0.1:46624"
	defaultEngineRequestTimeout  = 5
	defaultSettleDelaySeconds    = 5
	defaultNotifyRequestTimeout  = 10
	defaultTelemetryBufferSize   = 256
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

var defaultSupportedPlatforms = []string{"linux", "darwin"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Engine: Engine{
			Binary:             defaultEngineBinary,
			InstallDir:         defaultEngineInstallDir,
			DownloadURL:        defaultEngineDownloadURL,
			DownloadTimeout:    defaultEngineDownloadTimeout,
			LockPath:           defaultEngineLockPath,
			PIDPath:            defaultEnginePIDPath,
			APIURL:             defaultEngineAPIURL,
			RequestTimeout:     defaultEngineRequestTimeout,
			SupportedPlatforms: append([]string(nil), defaultSupportedPlatforms...),
		},
		Readiness: Readiness{
			SettleDelaySeconds: defaultSettleDelaySeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Telemetry: Telemetry{
			Enabled:    true,
			BufferSize: defaultTelemetryBufferSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
