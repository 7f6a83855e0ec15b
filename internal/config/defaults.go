package config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Auth: AuthConfig{
			CronSecret: "${DATAQUARD_CRON_SECRET}",
			Tokens:     map[string]TokenEntry{},
		},
		Batch: BatchConfig{
			Provider: "anthropic",
			MaxSize:  100,
		},
		Providers: map[string]ProviderConfig{
			"anthropic": {
				Type:           "anthropic",
				Model:          "claude-sonnet-4-20250514",
				APIKey:         "${ANTHROPIC_API_KEY}",
				MaxTokens:      2000,
				TimeoutSeconds: 60,
				Enabled:        true,
			},
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o",
				APIKey:         "${OPENAI_API_KEY}",
				MaxTokens:      2000,
				TimeoutSeconds: 60,
				Enabled:        false,
			},
		},
		Pricing: PricingConfig{
			InputUSDPerMillion:  1.5,
			OutputUSDPerMillion: 7.5,
		},
		Notifier: NotifierConfig{
			APIKey:         "${RESEND_API_KEY}",
			From:           "noreply@dataquard.ch",
			TimeoutSeconds: 15,
		},
		Polling: PollingConfig{
			IntervalSeconds: 5,
			MaxAttempts:     60,
		},
	}
}
