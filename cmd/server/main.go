// Package main is the entry point for the WTI price desk API server.
//
// The server exposes the NYMEX CL contract calendar, stored and live WTI
// price feeds, and price analytics over HTTP, and runs the scheduled
// upstream price sync in the background.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crudeops/wtidesk/internal/config"
	"github.com/crudeops/wtidesk/internal/di"
	"github.com/crudeops/wtidesk/internal/server"
	"github.com/crudeops/wtidesk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("sync_schedule", cfg.PriceSyncSchedule).
		Msg("Starting WTI price desk")

	// Opens and migrates the store, loads holidays, builds services and jobs
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	if jobs.Backup != nil {
		log.Info().
			Str("bucket", cfg.BackupBucket).
			Str("schedule", cfg.BackupSchedule).
			Int("retention_days", cfg.BackupRetentionDays).
			Msg("Price store backups enabled")
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	// Seed an empty store so analytics have data before the first scheduled run
	lastSync, err := container.PriceService.LastSync(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read last sync run")
	} else if lastSync == nil {
		go func() {
			if err := container.Scheduler.RunNow(jobs.PriceSync); err != nil {
				log.Error().Err(err).Msg("Initial price sync failed")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Lets an in-flight sync finish before the store closes
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := container.PricesDB.WALCheckpoint(shutdownCtx, "TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("Final WAL checkpoint failed")
	}

	log.Info().Msg("Server stopped")
}
