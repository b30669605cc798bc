package model

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AI.Model != "llama-3.3-70b-versatile" {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.MaxTokens != 1024 {
		t.Errorf("AI.MaxTokens = %d", cfg.AI.MaxTokens)
	}
	if cfg.Display.AppName != "INTERAC Internal" {
		t.Errorf("Display.AppName = %q", cfg.Display.AppName)
	}
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := &AppConfig{
		AI: AIConfig{
			Model:     "openai/gpt-oss-120b",
			MaxTokens: 512,
			WebFormat: true,
		},
		Display: DisplayConfig{
			Theme:   "default",
			AppName: "Maildesk QA",
			LogoURL: "data:image/png;base64,aGVsbG8=",
		},
	}

	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got.AI != want.AI {
		t.Errorf("AI = %+v, want %+v", got.AI, want.AI)
	}
	if got.Display != want.Display {
		t.Errorf("Display = %+v, want %+v", got.Display, want.Display)
	}
}
