package voxform

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  url: wss://backend.example/session
  token_url: https://backend.example/token
form:
  fields:
    - id: full_name
      label: Full name
      kind: text
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want info", cfg.LogLevel)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample_rate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Session.RotateInterval != 5*time.Second {
		t.Errorf("rotate_interval = %s, want 5s", cfg.Session.RotateInterval)
	}
	if !cfg.Privacy.RedactPII {
		t.Error("redact_pii should default to true")
	}
	if len(cfg.Form.Fields) != 1 || cfg.Form.Fields[0].ID != "full_name" {
		t.Fatalf("unexpected fields: %+v", cfg.Form.Fields)
	}
}

func TestLoadConfigParsesRotateInterval(t *testing.T) {
	path := writeConfig(t, `
backend:
  url: wss://backend.example/session
  token_url: https://backend.example/token
session:
  rotate_interval: 250ms
form:
  fields:
    - id: full_name
      label: Full name
      kind: text
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Session.RotateInterval != 250*time.Millisecond {
		t.Fatalf("rotate_interval = %s, want 250ms", cfg.Session.RotateInterval)
	}
}

func TestLoadConfigMissingBackend(t *testing.T) {
	path := writeConfig(t, `
form:
  fields:
    - id: full_name
      label: Full name
      kind: text
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for missing backend.url")
	}
}

func TestLoadConfigDuplicateFieldID(t *testing.T) {
	path := writeConfig(t, `
backend:
  url: wss://backend.example/session
  token_url: https://backend.example/token
form:
  fields:
    - id: email
      label: Email
      kind: email
    - id: email
      label: Email again
      kind: email
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for duplicated field id")
	}
}
