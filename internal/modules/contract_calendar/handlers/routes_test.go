package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewRouter()

	assert.NotPanics(t, func() {
		newTestHandler().RegisterRoutes(router)
	})

	patterns := []string{}
	_ = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		patterns = append(patterns, method+" "+route)
		return nil
	})

	assert.ElementsMatch(t, []string{
		"GET /calendar/contracts",
		"GET /calendar/contracts/{code}",
		"GET /calendar/grid",
		"GET /calendar/holidays",
	}, patterns)
}
