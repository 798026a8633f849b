// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bidmarket/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
// metricsHandler, if non-nil, is mounted at /metrics.
func NewRouter(listingHandler *handler.ListingHandler, bidHandler *handler.BidHandler, metricsHandler http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	requireActor := handler.ActorMiddleware(logger)

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", listingHandler.ListListings)
		r.Get("/{listingID}", listingHandler.GetListing)
		r.Get("/{listingID}/bids", bidHandler.GetBids)

		r.Group(func(r chi.Router) {
			r.Use(requireActor)
			r.Post("/", listingHandler.CreateListing)
			r.Get("/pending", listingHandler.ListPending)
			r.Patch("/{listingID}", listingHandler.UpdateListing)
			r.Delete("/{listingID}", listingHandler.DeleteListing)
			r.Post("/{listingID}/approve", listingHandler.ApproveListing)
			r.Post("/{listingID}/reject", listingHandler.RejectListing)
			r.Post("/{listingID}/sold", listingHandler.MarkSold)
			r.Post("/{listingID}/like", listingHandler.ToggleLike)
			r.Post("/{listingID}/bids", bidHandler.PlaceBid)
		})
	})
	r.With(requireActor).Get("/users/{userID}/listing-counts", listingHandler.CountByOwner)

	return r
}
