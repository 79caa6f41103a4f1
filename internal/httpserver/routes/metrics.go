package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
)

func init() { RegisterRestricted(registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	if d.Metrics == nil {
		return
	}
	r.Handle("/metrics", d.Metrics)
}
