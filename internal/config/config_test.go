package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.APIURL != "http://127.0.0.1:8000" {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.PageSize)
	}
	if cfg.AutoLoginAfterRegister {
		t.Error("AutoLoginAfterRegister should default to false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIURL != DefaultConfig().APIURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{"api_url": "https://api.example.com", "page_size": 25, "auto_login_after_register": true}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", cfg.PageSize)
	}
	if !cfg.AutoLoginAfterRegister {
		t.Error("AutoLoginAfterRegister = false, want true")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{"api_url": "https://api.example.com"}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv("SIFT_API_URL", "https://staging.example.com")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIURL != "https://staging.example.com" {
		t.Errorf("APIURL = %q, want env value", cfg.APIURL)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		APIURL:        "http://base",
		PageSize:      10,
		DisabledTools: []string{"email_delete"},
	}
	overlay := &Config{
		PageSize:               50,
		AutoLoginAfterRegister: true,
		DisabledTools:          []string{"email_delete", "usage_daily"},
	}

	merged := Merge(base, overlay)

	if merged.APIURL != "http://base" {
		t.Errorf("APIURL = %q, want base value", merged.APIURL)
	}
	if merged.PageSize != 50 {
		t.Errorf("PageSize = %d, want overlay value", merged.PageSize)
	}
	if !merged.AutoLoginAfterRegister {
		t.Error("AutoLoginAfterRegister = false, want true")
	}
	if len(merged.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want deduplicated pair", merged.DisabledTools)
	}
}
