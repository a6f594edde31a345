package clip

import (
	"encoding/base64"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full clipper configuration.
type Config struct {
	Listen  string        `yaml:"listen"`
	DBPath  string        `yaml:"db_path"`
	OAuth   OAuthConfig   `yaml:"oauth"`
	Docs    DocsConfig    `yaml:"docs"`
	Storage StorageConfig `yaml:"storage"`
	Browser BrowserConfig `yaml:"browser"`
}

// OAuthConfig identifies the app to the identity provider. The grant itself
// is written by the interactive sign-in flow, outside this daemon.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// CacheKey is the base64 of the 32-byte key sealing the stored grant.
	CacheKey string `yaml:"cache_key"`
}

// DocsConfig locates the document service.
type DocsConfig struct {
	BaseURL      string `yaml:"base_url"`
	DriveBaseURL string `yaml:"drive_base_url"`
}

// StorageConfig locates the object store for staged assets.
type StorageConfig struct {
	BaseURL       string `yaml:"base_url"`
	UploadBaseURL string `yaml:"upload_base_url"`
	// FolderName is the folder assets are uploaded into. Empty = root.
	FolderName string `yaml:"folder_name"`
}

// BrowserConfig configures live-page capture.
type BrowserConfig struct {
	// RemoteURL is the WebSocket URL of the user's running Chrome.
	// Empty = launch a local headless instance.
	RemoteURL string `yaml:"remote_url"`
	Stealth   bool   `yaml:"stealth"`
}

// DefaultConfig returns sane defaults pointing at the public service
// endpoints.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":8374",
		DBPath: "clipd.db",
		Docs: DocsConfig{
			BaseURL:      "https://docs.googleapis.com/v1",
			DriveBaseURL: "https://www.googleapis.com/drive/v3",
		},
		Storage: StorageConfig{
			BaseURL:       "https://www.googleapis.com/drive/v3",
			UploadBaseURL: "https://www.googleapis.com/upload/drive/v3",
			FolderName:    "Web Clips",
		},
	}
}

// LoadConfig reads and parses a YAML config file, merged over defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth.client_id and oauth.client_secret are required")
	}
	if _, err := c.cacheKey(); err != nil {
		return err
	}
	if c.Docs.BaseURL == "" || c.Docs.DriveBaseURL == "" {
		return fmt.Errorf("docs.base_url and docs.drive_base_url are required")
	}
	if c.Storage.BaseURL == "" || c.Storage.UploadBaseURL == "" {
		return fmt.Errorf("storage.base_url and storage.upload_base_url are required")
	}
	return nil
}

func (c *Config) cacheKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.OAuth.CacheKey)
	if err != nil {
		return nil, fmt.Errorf("oauth.cache_key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("oauth.cache_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
