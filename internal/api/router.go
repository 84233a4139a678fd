package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the read-only query surface. No mutating routes exist:
// every write in the system flows through the event feed.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/posts/trending", h.Trending)
		r.Get("/shops/{shopID}/metrics/daily", h.ShopDaily)
		r.Get("/shops/{shopID}/metrics/summary", h.ShopSummary)
		r.Get("/variants/{variantID}/metrics/daily", h.VariantDaily)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
