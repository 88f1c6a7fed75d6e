package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds client configuration.
type Config struct {
	// APIURL is the base URL of the remote triage API.
	APIURL string `json:"api_url"`

	// AutoLoginAfterRegister makes `sift register` establish a session on
	// success. The backend does not imply this; it is a client decision.
	AutoLoginAfterRegister bool `json:"auto_login_after_register,omitempty"`

	// PageSize is the default page size for list/search. Capped at 100
	// server-side.
	PageSize int `json:"page_size,omitempty"`

	// RequestTimeoutSecs bounds every API call except the health ping,
	// which has its own short timeout. 0 means no client-side timeout.
	RequestTimeoutSecs int `json:"request_timeout_secs,omitempty"`

	// HistoryDisabled turns off the local SQLite analysis log.
	HistoryDisabled bool `json:"history_disabled,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from
	// registration. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIURL:   "http://127.0.0.1:8000",
		PageSize: 10,
	}
}

// Load loads configuration from baseDir/config.json, overlaid on defaults
// and finally on the SIFT_API_URL environment variable. Returns default
// config if the file doesn't exist. The baseDir parameter allows tests to
// use t.TempDir() instead of ~/.sift.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)

	if url := strings.TrimSpace(os.Getenv("SIFT_API_URL")); url != "" {
		merged.APIURL = url
	}
	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.APIURL = overlay.APIURL
	if result.APIURL == "" {
		result.APIURL = base.APIURL
	}

	result.PageSize = overlay.PageSize
	if result.PageSize == 0 {
		result.PageSize = base.PageSize
	}

	result.RequestTimeoutSecs = overlay.RequestTimeoutSecs
	if result.RequestTimeoutSecs == 0 {
		result.RequestTimeoutSecs = base.RequestTimeoutSecs
	}

	// Booleans: overlay wins if true, else base
	result.AutoLoginAfterRegister = base.AutoLoginAfterRegister || overlay.AutoLoginAfterRegister
	result.HistoryDisabled = base.HistoryDisabled || overlay.HistoryDisabled

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
