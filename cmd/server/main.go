package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vanfinder/config"
	"vanfinder/database"
	"vanfinder/handlers"
	"vanfinder/logging"
	"vanfinder/snapshot"
	"vanfinder/worker"
)

// vendorStore is what both store backends provide.
type vendorStore interface {
	handlers.Store
	worker.GeoStore
}

// main loads configuration, opens the vendor store, starts the geocoding
// worker and serves the API until interrupted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to open vendor store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.Geocoder.APIKey != "" {
		w := worker.NewGeocodingWorker(store, worker.NewGoogleGeocoder(cfg.Geocoder.APIKey), log, worker.Options{
			BatchSize:   cfg.Geocoder.BatchSize,
			Concurrency: cfg.Geocoder.Concurrency,
			Interval:    cfg.Geocoder.Interval,
		})
		go w.Run(ctx)
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY not set, skipping geocoding")
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handlers.NewRouter(store, log, cfg.CORS.AllowedOrigins, cfg.Server.RequestTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server stopped")
}

// openStore prefers PostgreSQL and falls back to a snapshot file.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (vendorStore, func(), error) {
	if cfg.URL != "" {
		db, err := database.Connect(ctx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		return database.NewVendorStore(db, log), func() { db.Close() }, nil
	}

	f, err := snapshot.Load(cfg.SnapshotPath)
	if err != nil {
		return nil, nil, err
	}
	log.Info("serving vendors from snapshot", "path", cfg.SnapshotPath, "vendors", len(f.Vendors))
	return snapshot.NewStore(f), func() {}, nil
}
