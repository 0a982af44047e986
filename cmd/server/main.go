package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/citeview/internal/analysis"
	"github.com/dgallion1/citeview/internal/api"
	"github.com/dgallion1/citeview/internal/citation"
	"github.com/dgallion1/citeview/internal/config"
	"github.com/dgallion1/citeview/internal/controller"
	"github.com/dgallion1/citeview/internal/document"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := citation.Default()

	panel, err := loadPanel(cfg.AnalysisPath)
	if err != nil {
		log.Error("failed to load analysis", "path", cfg.AnalysisPath, "error", err)
		os.Exit(1)
	}
	if missing := panel.Unresolved(reg); len(missing) > 0 {
		log.Warn("analysis cites unknown citations", "ids", missing)
	}

	// Initialize the viewer session.
	renderer := document.NewPDFRenderer(cfg.PDFFallbackPdfinfo)
	stats := document.NewStats(cfg.StatsWindow)
	hub := api.NewHub(log, cfg.WSClientBuffer)

	ctrl := controller.New(reg, renderer, hub, stats, log, controller.Options{
		Source:        cfg.DocumentPath,
		FrameInterval: cfg.FrameInterval,
		RenderTimeout: cfg.RenderTimeout,
		QueueSize:     cfg.EventQueueSize,
	})
	ctrl.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(ctrl, hub, panel, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		ctrl.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		renderer.Close()
	}()

	log.Info("starting citeview", "port", cfg.Port, "document", cfg.DocumentPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func loadPanel(path string) (*analysis.Panel, error) {
	if path == "" {
		return analysis.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return analysis.Load(f, path)
}
