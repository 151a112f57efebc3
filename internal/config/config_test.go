package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != 25<<20 {
		t.Errorf("MaxUploadBytes = %d, want 25MiB", cfg.Server.MaxUploadBytes)
	}
	if cfg.Vision.Model != "gemini-2.5-flash" {
		t.Errorf("Model = %q", cfg.Vision.Model)
	}
	if cfg.Storage.ArtifactTTL != 24*time.Hour {
		t.Errorf("ArtifactTTL = %s, want 24h", cfg.Storage.ArtifactTTL)
	}
	if cfg.Pipeline.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Pipeline.Workers)
	}
	if got := cfg.Server.AllowedOrigins; len(got) != 1 || got[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", got)
	}
}

func TestLoad_MalformedValuesKeepDefaults(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "abc")
	t.Setenv("PIPELINE_MAX_RETRIES", "nope")
	t.Setenv("RENDER_DPI", "high")
	t.Setenv("MAX_UPLOAD_MB", "25MB")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %s, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Pipeline.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.Pipeline.MaxRetries)
	}
	if cfg.Vision.RenderDPI != 200 {
		t.Errorf("RenderDPI = %g, want 200", cfg.Vision.RenderDPI)
	}
	if cfg.Server.MaxUploadBytes != 25<<20 {
		t.Errorf("MaxUploadBytes = %d, want 25MiB", cfg.Server.MaxUploadBytes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("ARTIFACT_TTL_HOURS", "6")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Server.Port)
	}
	if cfg.Vision.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q", cfg.Vision.Model)
	}
	if cfg.Storage.ArtifactTTL != 6*time.Hour {
		t.Errorf("ArtifactTTL = %s, want 6h", cfg.Storage.ArtifactTTL)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if got := cfg.Server.AllowedOrigins; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("AllowedOrigins = %v, want %v", got, want)
	}
}
