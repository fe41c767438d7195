package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vanfinder/models"
)

const (
	DefaultBatchSize   = 200
	DefaultConcurrency = 50
	DefaultInterval    = 2 * time.Second
)

// GeoStore is the part of a vendor store the worker updates. PendingGeocodes
// must return vendors that have never been attempted first, then the least
// recently deferred ones, so a run of failing vendors cannot starve the rest.
type GeoStore interface {
	PendingGeocodes(ctx context.Context, limit int) ([]models.Vendor, error)
	SetCoordinates(ctx context.Context, id string, loc models.Location) error
	MarkGeocodeFailed(ctx context.Context, id string) error
	DeferGeocode(ctx context.Context, id string) error
}

// Options tune the geocoding worker. Zero values fall back to the defaults.
type Options struct {
	BatchSize   int
	Concurrency int
	Interval    time.Duration
}

// GeocodingWorker resolves coordinates for vendors that were listed with an
// address but no location, so they can take part in distance filtering.
type GeocodingWorker struct {
	store    GeoStore
	geocoder Geocoder
	logger   *slog.Logger
	opts     Options
}

// NewGeocodingWorker creates a worker.
func NewGeocodingWorker(store GeoStore, geocoder Geocoder, logger *slog.Logger, opts Options) *GeocodingWorker {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &GeocodingWorker{store: store, geocoder: geocoder, logger: logger, opts: opts}
}

// Run processes a batch on every tick until ctx is cancelled.
func (w *GeocodingWorker) Run(ctx context.Context) {
	w.logger.Info("starting geocoding worker",
		"batch", w.opts.BatchSize,
		"concurrency", w.opts.Concurrency,
		"interval", w.opts.Interval,
	)
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("geocoding worker stopped")
			return
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("geocoding batch failed", "error", err)
			}
		}
	}
}

// ProcessBatch resolves one batch of pending vendors and returns how many were
// resolved.
func (w *GeocodingWorker) ProcessBatch(ctx context.Context) (int, error) {
	pending, err := w.store.PendingGeocodes(ctx, w.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		resolved int
	)
	semaphore := make(chan struct{}, w.opts.Concurrency)

	for _, v := range pending {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return resolved, ctx.Err()
		}

		wg.Add(1)
		go func(v models.Vendor) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if w.resolve(ctx, v) {
				mu.Lock()
				resolved++
				mu.Unlock()
			}
		}(v)
	}

	wg.Wait()
	return resolved, nil
}

func (w *GeocodingWorker) resolve(ctx context.Context, v models.Vendor) bool {
	address := vendorAddress(v)
	var (
		loc models.Location
		err error
	)
	if address == "" {
		err = fmt.Errorf("%w: vendor has no name or address", ErrRejected)
	} else {
		loc, err = w.geocoder.Geocode(ctx, address)
	}
	if err == nil && !loc.Valid() {
		err = ErrNoResults
	}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		w.logger.Warn("geocoding failed", "vendor_id", v.ID, "name", v.Name, "error", err)
		if permanent(err) {
			if err := w.store.MarkGeocodeFailed(ctx, v.ID); err != nil {
				w.logger.Error("failed to mark vendor", "vendor_id", v.ID, "error", err)
			}
		} else if err := w.store.DeferGeocode(ctx, v.ID); err != nil {
			w.logger.Error("failed to defer vendor", "vendor_id", v.ID, "error", err)
		}
		return false
	}

	if err := w.store.SetCoordinates(ctx, v.ID, loc); err != nil {
		w.logger.Error("failed to update vendor", "vendor_id", v.ID, "error", err)
		return false
	}
	w.logger.Debug("resolved vendor", "vendor_id", v.ID, "latitude", loc.Latitude, "longitude", loc.Longitude)
	return true
}
