package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/handlers"
)

func init() { RegisterRestricted(registerStatus) }

func registerStatus(r chi.Router, d deps.Deps) {
	r.Get("/status", handlers.Status(d))
}
