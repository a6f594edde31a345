package clip

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString(make([]byte, 32))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clipd.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
oauth:
  client_id: id
  client_secret: secret
  cache_key: `+testKey()+`
storage:
  folder_name: "Research Clips"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
	if cfg.Storage.FolderName != "Research Clips" {
		t.Fatalf("folder = %q", cfg.Storage.FolderName)
	}
	// Untouched fields keep their defaults.
	if cfg.Docs.BaseURL != "https://docs.googleapis.com/v1" {
		t.Fatalf("docs base = %q", cfg.Docs.BaseURL)
	}
	if cfg.DBPath != "clipd.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
}

func TestLoadConfigRejectsMissingOAuth(t *testing.T) {
	path := writeConfig(t, "listen: \":9000\"\n")
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "oauth") {
		t.Fatalf("err = %v, want oauth validation error", err)
	}
}

func TestValidateRejectsBadCacheKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OAuth.ClientID = "id"
	cfg.OAuth.ClientSecret = "secret"
	cfg.OAuth.CacheKey = base64.StdEncoding.EncodeToString([]byte("short"))
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("err = %v, want key length error", err)
	}
}
