package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmarier/shortreel/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.InputFolder != "input_videos" {
		t.Fatalf("unexpected input folder: %q", cfg.InputFolder)
	}
	if cfg.SubtitleStyle != "ultra_vibrant" {
		t.Fatalf("unexpected style: %q", cfg.SubtitleStyle)
	}
	if cfg.BackgroundVideo != "random" {
		t.Fatalf("unexpected background selection: %q", cfg.BackgroundVideo)
	}
	if cfg.OpenAIAPIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.OpenAIAPIKey)
	}
	if len(cfg.Topics) == 0 {
		t.Fatal("expected default topics")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "shortreel.toml")
	body := `
input_folder = "clips"
background_video = "background.mp4"
subtitle_style = "neon_pop"
voice = "nova"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.InputFolder != "clips" {
		t.Fatalf("unexpected input folder: %q", cfg.InputFolder)
	}
	if cfg.BackgroundVideo != "background.mp4" {
		t.Fatalf("unexpected background: %q", cfg.BackgroundVideo)
	}
	if cfg.SubtitleStyle != "neon_pop" {
		t.Fatalf("unexpected style: %q", cfg.SubtitleStyle)
	}
	// Values absent from the file keep their defaults.
	if cfg.OutputFolder != "output_videos" {
		t.Fatalf("unexpected output folder: %q", cfg.OutputFolder)
	}
}

func TestValidateRejectsEmptyFolders(t *testing.T) {
	cfg := config.Default()
	cfg.OutputFolder = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty output_folder")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("input_folder = ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
