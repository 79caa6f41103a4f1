package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz reports ready once the first cycle completed and the state backend answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		resp := readyzResponse{Ready: true}
		switch {
		case d.Status == nil || !d.Status.Ready():
			resp = readyzResponse{Reason: "first cycle pending"}
		case d.RedisClient != nil && !checkRedis(r.Context(), d).OK:
			resp = readyzResponse{Reason: "redis unavailable"}
		}

		if resp.Ready {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
