package store

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultAPIURL is used when neither a flag, TASKFLOW_API_URL, nor config.json names one.
const DefaultAPIURL = "http://localhost:8000"

type Config struct {
	// APIURL is the REST API base URL (scheme + host, optional path prefix).
	APIURL string `json:"apiUrl,omitempty"`

	// TUI holds optional user preferences for the interactive TUI.
	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme is one of light|dark|auto.
	Theme string `json:"theme,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.taskflow).
	if v := strings.TrimSpace(os.Getenv("TASKFLOW_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskflow"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Unique temp name + rename so a concurrent CLI and TUI never see a torn file.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// NormalizeAPIURL validates u and strips any trailing slash so endpoint paths can be
// appended verbatim.
func NormalizeAPIURL(u string) (string, error) {
	u = strings.TrimSpace(u)
	if u == "" {
		return "", errors.New("api url is empty")
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api url must start with http:// or https://")
	}
	if parsed.Host == "" {
		return "", errors.New("api url is missing a host")
	}
	return strings.TrimRight(u, "/"), nil
}

// ResolveAPIURL picks the API base URL: explicit value (flag or env, already merged
// by the caller), then config.json, then DefaultAPIURL.
func ResolveAPIURL(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return NormalizeAPIURL(explicit)
	}
	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cfg.APIURL) != "" {
		return NormalizeAPIURL(cfg.APIURL)
	}
	return DefaultAPIURL, nil
}
