package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roelfdiedericks/switchboard/internal/llm"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.Kind != string(llm.KindOllama) {
		t.Errorf("kind = %q", cfg.Provider.Kind)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.json")
	body := `{
		"provider": {"kind": "lmstudio", "model": "qwen-local", "baseUrl": "http://workstation:1234"},
		"session": {"autoSwitch": true},
		"compaction": {"keepPercent": 70, "minMessages": 6},
		"logLevel": "debug"
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.Kind != "lmstudio" || cfg.Provider.Model != "qwen-local" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if !cfg.Session.AutoSwitch {
		t.Error("autoSwitch not set")
	}
	if cfg.Compaction.KeepPercent != 70 || cfg.Compaction.MinMessages != 6 {
		t.Errorf("compaction = %+v", cfg.Compaction)
	}

	gen := cfg.GeneratorConfig()
	if gen.Kind != llm.KindLMStudio || gen.BaseURL != "http://workstation:1234" {
		t.Errorf("generator config = %+v", gen)
	}
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.json")
	if err := os.WriteFile(path, []byte(`{"provider":{"kind":"mystery"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.json")
	if err := os.WriteFile(path, []byte(`{"provider":`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
