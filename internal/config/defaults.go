package config

const (
	defaultModelsDir              = "./models"
	defaultLogDir                 = "~/.local/share/scribe/logs"
	defaultAPIBind                = "0.0.0.0:6000"
	defaultEngineBinary           = "/app/build/bin/whisper-cli"
	defaultEngineLanguage         = "pt"
	defaultEngineModel            = "ggml-base.bin"
	defaultMaxUploadMiB           = 100
	defaultShutdownTimeoutSeconds = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

var defaultAllowedOrigins = []string{
	"http://localhost:8080",
	"https://cvto.vercel.app",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	origins := make([]string, len(defaultAllowedOrigins))
	copy(origins, defaultAllowedOrigins)
	return Config{
		Paths: Paths{
			ModelsDir: defaultModelsDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Engine: Engine{
			Binary:       defaultEngineBinary,
			Language:     defaultEngineLanguage,
			DefaultModel: defaultEngineModel,
		},
		Server: Server{
			MaxUploadMiB:           defaultMaxUploadMiB,
			AllowedOrigins:         origins,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
