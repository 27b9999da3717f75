package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-skin-analyzer/internal/config"
	"go-skin-analyzer/internal/container"
	"go-skin-analyzer/internal/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Configuration manquante. Veuillez contacter le support.")
	}

	log := logger.New(os.Stdout, cfg.LogLevel)

	c, err := container.NewContainer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize container")
	}

	server := &http.Server{
		Addr:    cfg.ServerAddress(),
		Handler: c.Handler(),
		// Uploads are read in full before the analysis call starts.
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"address":          cfg.ServerAddress(),
			"timeout":          cfg.RequestTimeout,
			"analysis_timeout": cfg.AnalysisTimeout,
			"min_interval":     cfg.MinRequestInterval,
			"archive":          cfg.ArchiveEnabled,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Abort the remote call first so Shutdown does not wait out the analysis
	// timeout; the worker pool is closed only once handlers have returned.
	if c.Service().Abort() {
		log.Info("Aborted in-flight analysis")
	}
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("Failed to release resources")
	}

	log.Info("Server exited")
}
