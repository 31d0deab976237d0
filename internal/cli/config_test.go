package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spotdeck/spotdeck/pkg/pipeline"
	"github.com/spotdeck/spotdeck/pkg/providers/describe"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	// A missing default config file falls back to built-in defaults.
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("explicit missing config file should error")
	}

	cfg = defaultConfig()
	if cfg.Order != pipeline.DefaultOrder {
		t.Errorf("Order = %d, want %d", cfg.Order, pipeline.DefaultOrder)
	}
	if cfg.Describe.BaseURL != describe.DefaultBaseURL {
		t.Errorf("Describe.BaseURL = %q, want %q", cfg.Describe.BaseURL, describe.DefaultBaseURL)
	}
	if cfg.Serve.Addr != ":8080" {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, ":8080")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
order = 3
theme = "sea creatures"

[describe]
api_key = "file-key"
model = "some/model"

[serve]
addr = ":9090"
redis_addr = "localhost:6379"
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.Order != 3 {
		t.Errorf("Order = %d, want 3", cfg.Order)
	}
	if cfg.Theme != "sea creatures" {
		t.Errorf("Theme = %q, want %q", cfg.Theme, "sea creatures")
	}
	if cfg.Describe.APIKey != "file-key" {
		t.Errorf("Describe.APIKey = %q, want %q", cfg.Describe.APIKey, "file-key")
	}
	if cfg.Describe.Model != "some/model" {
		t.Errorf("Describe.Model = %q, want %q", cfg.Describe.Model, "some/model")
	}
	if cfg.Serve.Addr != ":9090" {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, ":9090")
	}
	if cfg.Serve.RedisAddr != "localhost:6379" {
		t.Errorf("Serve.RedisAddr = %q, want %q", cfg.Serve.RedisAddr, "localhost:6379")
	}

	// Untouched fields keep their defaults.
	if cfg.Describe.BaseURL != describe.DefaultBaseURL {
		t.Errorf("Describe.BaseURL = %q, want default", cfg.Describe.BaseURL)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
theme = "from file"

[describe]
api_key = "file-key"
`)

	t.Setenv("SPOTDECK_THEME", "from env")
	t.Setenv("SPOTDECK_DESCRIBE_API_KEY", "env-key")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.Theme != "from env" {
		t.Errorf("Theme = %q, env should override file", cfg.Theme)
	}
	if cfg.Describe.APIKey != "env-key" {
		t.Errorf("Describe.APIKey = %q, env should override file", cfg.Describe.APIKey)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := writeConfigFile(t, "order = [not valid")

	if _, err := loadConfig(path); err == nil {
		t.Error("malformed config should error")
	}
}

func TestConfigProviderConversion(t *testing.T) {
	cfg := defaultConfig()
	cfg.Describe.APIKey = "dk"
	cfg.Image.APIKey = "ik"
	cfg.Image.BaseURL = "https://img.example.com"
	cfg.Image.Style = "flat"

	dc := cfg.describeConfig()
	if dc.APIKey != "dk" || dc.BaseURL != describe.DefaultBaseURL {
		t.Errorf("describeConfig() = %+v", dc)
	}

	ic := cfg.imageConfig()
	if ic.APIKey != "ik" || ic.BaseURL != "https://img.example.com" || ic.Style != "flat" {
		t.Errorf("imageConfig() = %+v", ic)
	}
}
