package config

const (
	defaultDataDir         = "~/.local/share/chorus"
	defaultLogDir          = "~/.local/share/chorus/logs"
	defaultBind            = "127.0.0.1:7344"
	defaultWorkers         = 4
	defaultPoolWaitSeconds = 5
	defaultAssetsVersion   = "1"
	defaultSessionCookie   = "chorus_session"
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:            defaultBind,
			Workers:         defaultWorkers,
			PoolWaitSeconds: defaultPoolWaitSeconds,
			AssetsVersion:   defaultAssetsVersion,
			SessionCookie:   defaultSessionCookie,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
