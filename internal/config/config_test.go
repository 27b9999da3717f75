package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("ANALYZER_ENDPOINT_URL", "https://hooks.example.com/webhook/skin")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %s", cfg.ServerAddress())
	}
	if cfg.AnalysisTimeout != 60*time.Second {
		t.Errorf("Expected 60s analysis timeout, got %s", cfg.AnalysisTimeout)
	}
	if cfg.MinRequestInterval != 3*time.Second {
		t.Errorf("Expected 3s interval, got %s", cfg.MinRequestInterval)
	}
	if cfg.MaxImageWidth != 1200 || cfg.MaxImageHeight != 1200 {
		t.Errorf("Expected 1200x1200 bounding box, got %dx%d", cfg.MaxImageWidth, cfg.MaxImageHeight)
	}
	if cfg.MaxImagePixels != 40_000_000 {
		t.Errorf("Expected 40 Mpx source limit, got %d", cfg.MaxImagePixels)
	}
	if cfg.ImageQuality != 0.85 {
		t.Errorf("Expected quality 0.85, got %g", cfg.ImageQuality)
	}
	if cfg.MaxUploadSize != 10*1024*1024 {
		t.Errorf("Expected 10MiB upload limit, got %d", cfg.MaxUploadSize)
	}
	if len(cfg.AcceptedMIMETypes) != 4 {
		t.Errorf("Expected 4 accepted MIME types, got %v", cfg.AcceptedMIMETypes)
	}
	if cfg.DefaultLocale != "fr-FR" {
		t.Errorf("Expected fr-FR locale, got %s", cfg.DefaultLocale)
	}
	if cfg.ArchiveEnabled {
		t.Error("Expected archive to be disabled by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("ANALYZER_ENDPOINT_URL", "http://localhost:5678/webhook/abc")
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_IMAGE_WIDTH", "800")
	t.Setenv("IMAGE_QUALITY", "0.7")
	t.Setenv("ACCEPTED_MIME_TYPES", "image/jpeg, image/png ,")
	t.Setenv("MIN_REQUEST_INTERVAL", "500ms")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.Port != "9090" || cfg.MaxImageWidth != 800 || cfg.ImageQuality != 0.7 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if len(cfg.AcceptedMIMETypes) != 2 || cfg.AcceptedMIMETypes[1] != "image/png" {
		t.Errorf("Expected trimmed two-item list, got %v", cfg.AcceptedMIMETypes)
	}
	if cfg.MinRequestInterval != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %s", cfg.MinRequestInterval)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing endpoint", map[string]string{}},
		{"bad scheme", map[string]string{"ANALYZER_ENDPOINT_URL": "ftp://example.com/x"}},
		{"bad port", map[string]string{"ANALYZER_ENDPOINT_URL": "https://example.com", "PORT": "99999"}},
		{"quality above one", map[string]string{"ANALYZER_ENDPOINT_URL": "https://example.com", "IMAGE_QUALITY": "1.5"}},
		{"quality zero", map[string]string{"ANALYZER_ENDPOINT_URL": "https://example.com", "IMAGE_QUALITY": "0"}},
		{"zero pixel ceiling", map[string]string{"ANALYZER_ENDPOINT_URL": "https://example.com", "MAX_IMAGE_PIXELS": "0"}},
		{"archive without credentials", map[string]string{"ANALYZER_ENDPOINT_URL": "https://example.com", "ARCHIVE_ENABLED": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANALYZER_ENDPOINT_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFromEnv(); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}
