package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	App      AppConfig      `toml:"app"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	AI       AIConfig       `toml:"ai"`
	YouTube  YouTubeConfig  `toml:"youtube"`
}

// AppConfig contains settings shared by the HTTP surface and the CLI.
type AppConfig struct {
	BaseURL       string `toml:"base_url"`
	DevUserEmail  string `toml:"dev_user_email"`
	DevBypassAuth bool   `toml:"dev_bypass_auth"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// StorageConfig controls where uploaded files land.
type StorageConfig struct {
	UploadDir   string `toml:"upload_dir"`
	MaxUploadMB int64  `toml:"max_upload_mb"`
}

// AIConfig selects and tunes the transcription, analysis and generation provider.
type AIConfig struct {
	Provider          string  `toml:"provider"` // "mock" or "openai"
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MaxRetries        int     `toml:"max_retries"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// YouTubeConfig contains Google OAuth client credentials and API endpoints.
type YouTubeConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
	RevokeURL    string `toml:"revoke_url"`
	APIBaseURL   string `toml:"api_base_url"`
	UploadURL    string `toml:"upload_url"`
}

// Configured reports whether OAuth client credentials are present.
func (y YouTubeConfig) Configured() bool {
	return y.ClientID != "" && y.ClientSecret != ""
}

// RedirectURL is the OAuth callback registered with Google.
func (c *Config) RedirectURL() string {
	return strings.TrimRight(c.App.BaseURL, "/") + "/api/youtube/callback"
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the per-call provider timeout.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// UseMock reports whether the deterministic mock provider should be used.
func (a AIConfig) UseMock() bool {
	return a.Provider != "openai" || a.APIKey == ""
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if _, err := toml.Decode(string(data), config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides secrets and toggles from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AI.APIKey = v
		if c.AI.Provider == "" || c.AI.Provider == "mock" {
			c.AI.Provider = "openai"
		}
	}
	if v := os.Getenv("MOCK_AI"); v == "true" || v == "1" {
		c.AI.Provider = "mock"
	}
	if v := os.Getenv("YOUTUBE_CLIENT_ID"); v != "" {
		c.YouTube.ClientID = v
	}
	if v := os.Getenv("YOUTUBE_CLIENT_SECRET"); v != "" {
		c.YouTube.ClientSecret = v
	}
	if v := os.Getenv("DEV_BYPASS_AUTH"); v != "" {
		c.App.DevBypassAuth = v == "true" || v == "1"
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
