package config

const (
	defaultStagingDir      = "~/.local/share/subflow/staging"
	defaultOutputDir       = "~/subflow/output"
	defaultLogDir          = "~/.local/share/subflow/logs"
	defaultCheckpointDir   = "~/.local/share/subflow/checkpoints"
	defaultTargetLanguage  = "es"
	defaultCaptionLanguage = "en"
	defaultDownloadFormat  = "best"
	defaultModel           = "medium"
	defaultMaxNoSpeech     = 0.6
	defaultTimeoutSeconds  = 120
	defaultEncoder         = "auto"
	defaultFontName        = "Arial"
	defaultFontSize        = 48
	defaultPrimaryColor    = "#FFFFFF"
	defaultOutlineColor    = "#000000"
	defaultEventBufferSize = 16
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:    defaultStagingDir,
			OutputDir:     defaultOutputDir,
			LogDir:        defaultLogDir,
			CheckpointDir: defaultCheckpointDir,
		},
		Job: Job{
			TargetLanguage:  defaultTargetLanguage,
			CaptionLanguage: defaultCaptionLanguage,
			DownloadFormat:  defaultDownloadFormat,
		},
		Transcription: Transcription{
			Model:           defaultModel,
			MaxNoSpeechProb: defaultMaxNoSpeech,
		},
		Translation: Translation{
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Render: Render{
			Encoder:      defaultEncoder,
			FontName:     defaultFontName,
			FontSize:     defaultFontSize,
			PrimaryColor: defaultPrimaryColor,
			OutlineColor: defaultOutlineColor,
		},
		Workflow: Workflow{
			EventBufferSize: defaultEventBufferSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
