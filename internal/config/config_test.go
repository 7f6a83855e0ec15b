package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dataquard/dataquard/internal/policy"
	"github.com/dataquard/dataquard/internal/providers"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Batch.Provider != "anthropic" {
		t.Errorf("default batch provider = %q, want anthropic", cfg.Batch.Provider)
	}
	if cfg.Batch.MaxSize != 100 {
		t.Errorf("default batch max size = %d, want 100", cfg.Batch.MaxSize)
	}
	if cfg.Providers["anthropic"].APIKey != "${ANTHROPIC_API_KEY}" {
		t.Error("expected anthropic API key placeholder")
	}
	if cfg.Providers["anthropic"].Model != "claude-sonnet-4-20250514" {
		t.Errorf("default model = %q", cfg.Providers["anthropic"].Model)
	}
	if cfg.Pricing.InputUSDPerMillion != 1.5 || cfg.Pricing.OutputUSDPerMillion != 7.5 {
		t.Errorf("default pricing = %v", cfg.Pricing)
	}
	if cfg.Auth.CronSecret != "${DATAQUARD_CRON_SECRET}" {
		t.Error("expected cron secret placeholder")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestToProviderRegistryConfig(t *testing.T) {
	os.Setenv("TEST_ANTHROPIC_KEY", "sk-ant-123")
	defer os.Unsetenv("TEST_ANTHROPIC_KEY")

	cfg := &Config{
		Batch: BatchConfig{Provider: "anthropic"},
		Providers: map[string]ProviderConfig{
			"anthropic": {
				Type:           providers.AnthropicName,
				Model:          "claude-sonnet-4-20250514",
				APIKey:         "${TEST_ANTHROPIC_KEY}",
				MaxTokens:      2000,
				TimeoutSeconds: 60,
				Enabled:        true,
			},
		},
	}

	rc := cfg.ToProviderRegistryConfig()
	if rc.Active != "anthropic" {
		t.Errorf("active = %q", rc.Active)
	}
	pc := rc.Providers["anthropic"]
	if pc.APIKey != "sk-ant-123" {
		t.Errorf("API key not resolved: %q", pc.APIKey)
	}
	if pc.System != policy.SystemPrompt {
		t.Error("system prompt should be injected")
	}
	if pc.Timeout.Seconds() != 60 {
		t.Errorf("timeout = %v", pc.Timeout)
	}
}

func TestOwnerForToken(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{
			Tokens: map[string]TokenEntry{
				"tok-1": {Owner: "owner-1", Email: "one@example.ch"},
			},
		},
	}

	owner, ok := cfg.OwnerForToken("tok-1")
	if !ok || owner != "owner-1" {
		t.Errorf("OwnerForToken = %q, %v", owner, ok)
	}
	if _, ok := cfg.OwnerForToken("tok-unknown"); ok {
		t.Error("unknown token should not resolve")
	}
	if _, ok := cfg.OwnerForToken(""); ok {
		t.Error("empty token should not resolve")
	}
}

func TestContactForOwner(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{
			Tokens: map[string]TokenEntry{
				"tok-1": {Owner: "owner-1", Email: "one@example.ch"},
				"tok-2": {Owner: "owner-2"},
			},
		},
	}

	contact, ok := cfg.ContactForOwner("owner-1")
	if !ok || contact != "one@example.ch" {
		t.Errorf("ContactForOwner = %q, %v", contact, ok)
	}
	if _, ok := cfg.ContactForOwner("owner-2"); ok {
		t.Error("owner without email should have no contact")
	}
	if _, ok := cfg.ContactForOwner("owner-3"); ok {
		t.Error("unknown owner should have no contact")
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	content := string(data)
	for _, want := range []string{"providers:", "anthropic", "${ANTHROPIC_API_KEY}", "pricing:", "notifier:"} {
		if !strings.Contains(content, want) {
			t.Errorf("written config missing %q", want)
		}
	}
}
