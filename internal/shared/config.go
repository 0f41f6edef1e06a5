package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// DuplicateStrategy controls what happens when a download's output path already exists.
type DuplicateStrategy string

const (
	DuplicateSkip      DuplicateStrategy = "skip"
	DuplicateOverwrite DuplicateStrategy = "overwrite"
	DuplicateRename    DuplicateStrategy = "rename"
)

// QualityBitrates maps quality labels to MP3 bitrates in kbps.
var QualityBitrates = map[string]int{
	"best":     320,
	"high":     320,
	"medium":   256,
	"standard": 192,
	"low":      128,
}

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	General     GeneralConfig     `toml:"general"`
	Advanced    AdvancedConfig    `toml:"advanced"`
	Credentials CredentialsConfig `toml:"credentials"`
	Search      SearchConfig      `toml:"search"`
	Database    DatabaseConfig    `toml:"database"`
}

// GeneralConfig contains download output settings.
type GeneralConfig struct {
	SaveLocation      string `toml:"save_location"`
	DefaultQuality    string `toml:"default_quality"`
	DuplicateHandling string `toml:"duplicate_handling"`
}

// AdvancedConfig contains scheduler and resolver tuning.
type AdvancedConfig struct {
	ConcurrentDownloads int  `toml:"concurrent_downloads"`
	SearchLimit         int  `toml:"search_limit"`
	AutoResolve         bool `toml:"auto_resolve"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify    SpotifyConfig    `toml:"spotify"`
	AppleMusic AppleMusicConfig `toml:"apple_music"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// AppleMusicConfig contains Apple Music API credentials.
type AppleMusicConfig struct {
	DeveloperToken string `toml:"developer_token"`
	UserToken      string `toml:"user_token"`
	Storefront     string `toml:"storefront"`
}

// SearchConfig contains search provider settings.
type SearchConfig struct {
	ProxyURL  string  `toml:"proxy_url"`
	RateLimit float64 `toml:"rate_limit"`
}

// DatabaseConfig contains resolution cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Bitrate returns the configured quality as a bitrate in kbps, defaulting to 320.
func (c *Config) Bitrate() int {
	if kbps, ok := QualityBitrates[c.General.DefaultQuality]; ok {
		return kbps
	}
	return 320
}

// Duplicates returns the configured duplicate handling strategy, defaulting to rename.
func (c *Config) Duplicates() DuplicateStrategy {
	switch DuplicateStrategy(c.General.DuplicateHandling) {
	case DuplicateSkip, DuplicateOverwrite, DuplicateRename:
		return DuplicateStrategy(c.General.DuplicateHandling)
	default:
		return DuplicateRename
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
