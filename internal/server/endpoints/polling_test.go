package endpoints

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dataquard/dataquard/internal/home"
)

func TestPollingDefaults(t *testing.T) {
	t.Run("built-ins without a config file", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		interval, attempts := pollingDefaults()
		if interval != 5*time.Second {
			t.Errorf("interval = %v, want 5s", interval)
		}
		if attempts != 60 {
			t.Errorf("attempts = %d, want 60", attempts)
		}
	})

	t.Run("polling config overrides the built-ins", func(t *testing.T) {
		homeDir := t.TempDir()
		t.Setenv("HOME", homeDir)

		cfgDir := filepath.Join(homeDir, home.DefaultDirName)
		if err := os.MkdirAll(cfgDir, 0o755); err != nil {
			t.Fatal(err)
		}
		cfg := "polling:\n  interval_seconds: 2\n  max_attempts: 10\n"
		if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(cfg), 0o644); err != nil {
			t.Fatal(err)
		}

		interval, attempts := pollingDefaults()
		if interval != 2*time.Second {
			t.Errorf("interval = %v, want 2s", interval)
		}
		if attempts != 10 {
			t.Errorf("attempts = %d, want 10", attempts)
		}
	})
}
