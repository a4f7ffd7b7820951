package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all contract calendar routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.Get("/contracts", h.HandleGetContracts)
		r.Get("/contracts/{code}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetContract(w, r, chi.URLParam(r, "code"))
		})
		r.Get("/grid", h.HandleGetGrid)
		r.Get("/holidays", h.HandleGetHolidays)
	})
}
