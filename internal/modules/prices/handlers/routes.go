package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices", func(r chi.Router) {
		r.Get("/", h.HandleGetPrices)
		r.Post("/cma", h.HandleCalculateCMA)
		r.Get("/trade-period-average", h.HandleTradePeriodAverage)
		r.Get("/analytics", h.HandleGetAnalytics)
		r.Post("/sync", h.HandleSync)
		r.Get("/sync/last", h.HandleGetLastSync)
	})
}
