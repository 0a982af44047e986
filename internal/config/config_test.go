package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DOCUMENT_PATH", "ANALYSIS_PATH", "VIEWER_API_KEY", "CORS_ALLOWED_ORIGINS",
		"FRAME_INTERVAL", "RENDER_TIMEOUT", "EVENT_QUEUE_SIZE", "WS_CLIENT_BUFFER", "STATS_WINDOW", "PDF_FALLBACK_PDFINFO"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.DocumentPath != "report.pdf" {
		t.Errorf("expected report.pdf, got %q", cfg.DocumentPath)
	}
	if cfg.FrameInterval != 16*time.Millisecond {
		t.Errorf("expected 16ms frame interval, got %v", cfg.FrameInterval)
	}
	if cfg.EventQueueSize != 64 {
		t.Errorf("expected queue size 64, got %d", cfg.EventQueueSize)
	}
	if cfg.WSClientBuffer != 32 {
		t.Errorf("expected client buffer 32, got %d", cfg.WSClientBuffer)
	}
	if !cfg.PDFFallbackPdfinfo {
		t.Error("expected pdfinfo fallback enabled by default")
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("expected 2 default origins, got %v", cfg.CORSAllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DOCUMENT_PATH", "/srv/q2.pdf")
	t.Setenv("FRAME_INTERVAL", "0s")
	t.Setenv("EVENT_QUEUE_SIZE", "-5")
	t.Setenv("RENDER_TIMEOUT", "garbage")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("PDF_FALLBACK_PDFINFO", "false")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DocumentPath != "/srv/q2.pdf" {
		t.Errorf("unexpected port/path %q %q", cfg.Port, cfg.DocumentPath)
	}
	if cfg.FrameInterval != 0 {
		t.Errorf("expected throttling disabled, got %v", cfg.FrameInterval)
	}
	if cfg.EventQueueSize != 64 {
		t.Errorf("expected invalid queue size to fall back to 64, got %d", cfg.EventQueueSize)
	}
	if cfg.RenderTimeout != 30*time.Second {
		t.Errorf("expected unparsable timeout to fall back to 30s, got %v", cfg.RenderTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.PDFFallbackPdfinfo {
		t.Error("expected pdfinfo fallback disabled")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Port: "8090"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing document path")
	}
	cfg.DocumentPath = "report.pdf"
	cfg.FrameInterval = -time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative frame interval")
	}
}
