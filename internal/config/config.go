package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Document and analysis panel sources
	DocumentPath string
	AnalysisPath string

	// Auth
	ViewerAPIKey string

	// Browser UI origins allowed by CORS
	CORSAllowedOrigins []string

	// Controller
	FrameInterval  time.Duration
	RenderTimeout  time.Duration
	EventQueueSize int

	// Per websocket client event buffer
	WSClientBuffer int

	// Render latency stats window
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdfinfo bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocumentPath: envOr("DOCUMENT_PATH", "report.pdf"),
		AnalysisPath: os.Getenv("ANALYSIS_PATH"),

		ViewerAPIKey: os.Getenv("VIEWER_API_KEY"),

		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "http://127.0.0.1:*"}),

		FrameInterval:  envDuration("FRAME_INTERVAL", 16*time.Millisecond),
		RenderTimeout:  envDuration("RENDER_TIMEOUT", 30*time.Second),
		EventQueueSize: envInt("EVENT_QUEUE_SIZE", 64),

		WSClientBuffer: envInt("WS_CLIENT_BUFFER", 32),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdfinfo: envBool("PDF_FALLBACK_PDFINFO", true),
	}

	if cfg.FrameInterval < 0 {
		cfg.FrameInterval = 16 * time.Millisecond
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.EventQueueSize <= 0 {
		cfg.EventQueueSize = 64
	}
	if cfg.WSClientBuffer <= 0 {
		cfg.WSClientBuffer = 32
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocumentPath == "" {
		return fmt.Errorf("DOCUMENT_PATH is required")
	}
	if c.FrameInterval < 0 {
		return fmt.Errorf("FRAME_INTERVAL must not be negative")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
