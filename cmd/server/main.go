package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"savemymoney/internal/app"
	"savemymoney/internal/config"
	"savemymoney/internal/handler"
	"savemymoney/internal/port"
	"savemymoney/internal/repository/noop"
	"savemymoney/internal/repository/postgres"
	"savemymoney/internal/router"
	"savemymoney/internal/service"
	s3storage "savemymoney/internal/storage/s3"
)

// @title Receipt Extraction API
// @version 1.0
// @description Turns receipt photos into reviewable transaction items.
// @BasePath /api/v1
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.SetFlags(cfg.Log.Flags())
	if !cfg.Log.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Diagnostics persistence is optional
	runRepo := noop.NewExtractionRunRepo()
	var pinger handler.Pinger
	if cfg.Extraction.RecordRuns {
		db, err := postgres.NewDB(ctx, &cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		runRepo = postgres.NewExtractionRunRepo(db)
		pinger = runRepo
	}

	// Receipt archive is optional
	var storage port.ObjectStorage
	if cfg.S3.Enabled {
		archive, err := s3storage.NewArchive(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 archive: %w", err)
		}
		storage = archive
	}

	// Initialize services
	extractionSvc, err := app.NewExtractionService(cfg)
	if err != nil {
		return err
	}
	receiptSvc := service.NewReceiptService(extractionSvc, storage, runRepo, &cfg.S3, &cfg.Extraction)

	// Initialize handlers
	receiptH := handler.NewReceiptHandler(receiptSvc, cfg.S3.MaxFileSizeMB)
	healthH := handler.NewHealthHandler(pinger)

	// Setup router
	r := router.Setup(cfg, receiptH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down, waiting for in-flight extractions...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Extraction.RequestTimeout()+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
