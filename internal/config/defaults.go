package config

const (
	defaultLogDir         = "~/.local/share/glance/logs"
	defaultBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultModel          = "gpt-4o-mini"
	defaultTemperature    = 0.3
	defaultMaxTokens      = 1024
	defaultTimeoutSeconds = 60
	defaultBatchSize      = 5
	defaultRateLimit      = 3
	defaultMaxRetries     = 3
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultNotifyTimeout  = 10
)

// SupportedModels lists the model identifiers the endpoint accepts.
var SupportedModels = []string{"gpt-4o", "gpt-4o-mini"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			Temperature:    defaultTemperature,
			MaxTokens:      defaultMaxTokens,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Batch: Batch{
			Size:               defaultBatchSize,
			RateLimitPerMinute: defaultRateLimit,
			MaxRetries:         defaultMaxRetries,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
