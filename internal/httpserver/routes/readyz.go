package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/handlers"
)

func init() {
	Register(registerLiveness)
	RegisterRestricted(registerReadiness)
}

func registerLiveness(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

func registerReadiness(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
}
