package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "MOCK_AI", "YOUTUBE_CLIENT_ID", "YOUTUBE_CLIENT_SECRET", "DEV_BYPASS_AUTH"} {
		t.Setenv(k, "")
	}
}

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./contentforge.db" {
			t.Errorf("expected database path ./contentforge.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.App.DevUserEmail != "test@contentforge.dev" {
			t.Errorf("expected dev user email test@contentforge.dev, got %s", config.App.DevUserEmail)
		}

		if !config.AI.UseMock() {
			t.Error("default config should use the mock provider")
		}

		if config.YouTube.Configured() {
			t.Error("default config should not have YouTube credentials")
		}

		if got := config.RedirectURL(); got != "http://localhost:3000/api/youtube/callback" {
			t.Errorf("unexpected redirect URL %s", got)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		clearEnv(t)
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		clearEnv(t)
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[ai]
timeout_seconds = 5

[youtube]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Database.MaxOpenConns != 1 {
			t.Errorf("missing keys should keep defaults, got max_open_conns %d", config.Database.MaxOpenConns)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.AI.Timeout() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", config.AI.Timeout())
		}

		if !config.YouTube.Configured() {
			t.Error("youtube should be configured")
		}
	})

	t.Run("LoadConfig invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server\nport = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("YOUTUBE_CLIENT_ID", "cid")
		t.Setenv("YOUTUBE_CLIENT_SECRET", "secret")
		t.Setenv("DEV_BYPASS_AUTH", "false")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.AI.UseMock() {
			t.Error("an API key in the environment should select openai")
		}
		if !config.YouTube.Configured() {
			t.Error("youtube credentials should come from the environment")
		}
		if config.App.DevBypassAuth {
			t.Error("dev bypass should be disabled")
		}

		t.Setenv("MOCK_AI", "true")
		config.ApplyEnv()
		if !config.AI.UseMock() {
			t.Error("MOCK_AI should force the mock provider")
		}
	})
}
