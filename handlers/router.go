package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"vanfinder/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Store is everything the API needs from a vendor store.
type Store interface {
	VendorReader
	ReviewStore
}

// DefaultRequestTimeout bounds a request when NewRouter is given no timeout.
const DefaultRequestTimeout = 10 * time.Second

// NewRouter wires every API route behind the shared middleware stack.
// requestTimeout should stay below the server's write timeout so a slow
// request is answered with 504 before the connection is cut.
func NewRouter(store Store, logger *slog.Logger, allowedOrigins []string, requestTimeout time.Duration) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	vendors := NewVendorHandler(store, logger)
	reviewHandler := NewReviewHandler(store, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.Get("/health", HealthHandler(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/vendors", vendors.Search)
		r.Get("/vendors/{vendorId}", vendors.Get)
		r.Get("/vendors/{vendorId}/reviews", reviewHandler.List)
		r.Post("/vendors/{vendorId}/reviews", reviewHandler.Create)

		r.Get("/cuisines", CuisinesHandler(logger))
		r.Get("/price-tiers", PriceTiersHandler(logger))
		r.Get("/sort-keys", SortKeysHandler(logger))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
