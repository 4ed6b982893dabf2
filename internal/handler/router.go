package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/spot-booking/internal/metrics"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Parking   Parking
	Admin     Admin
	Gate      Gate
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	RateLimit float64
	RateBurst int
	// Ping backs /health. Nil reports healthy without checking.
	Ping func(context.Context) error
}

// NewRouter builds the RPC adapter's route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	parking := NewParkingHandler(cfg.Parking, cfg.Log)
	admin := NewAdminHandler(cfg.Admin, cfg.Gate, cfg.Log)
	limiter := NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Log)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(cfg.Log))
	r.Use(Instrument(cfg.Metrics))

	r.Get("/health", HealthCheck(cfg.Ping))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser(cfg.Log))

			r.Post("/users", parking.Register)
			r.Get("/users/me", parking.Me)

			r.Route("/listing", func(r chi.Router) {
				r.Post("/", parking.StartListing)
				r.Post("/input", parking.ListingInput)
				r.Post("/cancel", parking.CancelListing)
			})

			r.Route("/spots", func(r chi.Router) {
				r.Get("/", parking.ListAvailable)
				r.Get("/mine", parking.MySpots)
				r.Get("/{id}", parking.GetSpot)
				r.Post("/{id}/book", parking.Book)
			})

			r.Get("/bookings/mine", parking.MyBookings)
			r.Get("/hours", RecommendedHours)
			r.Post("/admin/login", admin.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(cfg.Gate, cfg.Log))

			r.Get("/admin/stats", admin.Stats)
			r.Get("/admin/users", admin.Users)
			r.Get("/admin/spots", admin.Spots)
			r.Get("/admin/bookings", admin.Bookings)
		})
	})

	return r
}
