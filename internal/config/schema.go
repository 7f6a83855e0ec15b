package config

// Config is the top-level dataquard configuration.
type Config struct {
	Server    ServerConfig              `mapstructure:"server" yaml:"server"`
	Auth      AuthConfig                `mapstructure:"auth" yaml:"auth"`
	Batch     BatchConfig               `mapstructure:"batch" yaml:"batch"`
	Providers map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
	Pricing   PricingConfig             `mapstructure:"pricing" yaml:"pricing"`
	Notifier  NotifierConfig            `mapstructure:"notifier" yaml:"notifier"`
	Polling   PollingConfig             `mapstructure:"polling" yaml:"polling"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// TokenEntry maps an API bearer token to an owner identity.
type TokenEntry struct {
	Owner string `mapstructure:"owner" yaml:"owner"`
	Email string `mapstructure:"email" yaml:"email"`
}

// AuthConfig holds the authentication settings: per-user API tokens and
// the shared secret the scheduler trigger authenticates with.
type AuthConfig struct {
	CronSecret string                `mapstructure:"cron_secret" yaml:"cron_secret"`
	Tokens     map[string]TokenEntry `mapstructure:"tokens" yaml:"tokens"`
}

// BatchConfig bounds batch submission and selects the active provider.
type BatchConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	MaxSize  int    `mapstructure:"max_size" yaml:"max_size"`
}

// ProviderConfig configures one batch inference provider.
type ProviderConfig struct {
	Type           string `mapstructure:"type" yaml:"type"`
	Model          string `mapstructure:"model" yaml:"model"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	MaxTokens      int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// PricingConfig holds the per-million-token rates used for cost
// computation. Rates change independently of pipeline logic.
type PricingConfig struct {
	InputUSDPerMillion  float64 `mapstructure:"input_usd_per_million" yaml:"input_usd_per_million"`
	OutputUSDPerMillion float64 `mapstructure:"output_usd_per_million" yaml:"output_usd_per_million"`
}

// NotifierConfig configures the policy-ready email notifier.
type NotifierConfig struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	From           string `mapstructure:"from" yaml:"from"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// PollingConfig bounds the client-side status polling loop.
type PollingConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds" yaml:"interval_seconds"`
	MaxAttempts     int `mapstructure:"max_attempts" yaml:"max_attempts"`
}
