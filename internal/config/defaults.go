package config

const (
	defaultDataDir               = "~/.local/share/scribe"
	defaultStagingDir            = "~/.local/share/scribe/staging"
	defaultLogDir                = "~/.local/share/scribe/logs"
	defaultModelsDir             = "~/.local/share/scribe/models"
	defaultEngineModel           = "base.en"
	defaultEngineLanguage        = "en"
	defaultNtfyServer            = "https://ntfy.sh"
	defaultNotifyRequestTimeout  = 10
	defaultStagingRetentionHours = 24
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			ModelsDir:  defaultModelsDir,
		},
		Engine: Engine{
			Model:    defaultEngineModel,
			Language: defaultEngineLanguage,
		},
		Notifications: Notifications{
			NtfyServer:     defaultNtfyServer,
			RequestTimeout: defaultNotifyRequestTimeout,
			Completions:    true,
			Errors:         true,
		},
		Workflow: Workflow{
			StagingRetentionHours: defaultStagingRetentionHours,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
