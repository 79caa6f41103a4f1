package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/mw"
)

func init() { RegisterRestricted(registerCheck) }

func registerCheck(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             max(d.CheckLimit, 1),
		RefillPerIPPerMin: max(d.CheckLimit, 1),
		TrustProxy:        d.TrustProxy,
	})
	r.With(limit).Post("/check", handlers.Check(d))
}
