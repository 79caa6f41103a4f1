package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
)

type healthzResponse struct {
	Status       string `json:"status"`
	Route        string `json:"route"`
	RouteKey     string `json:"route_key"`
	PollInterval string `json:"poll_interval"`
	StateBackend string `json:"state_backend"`
	StartedAt    string `json:"started_at"`
	Uptime       string `json:"uptime"`
	Version      string `json:"version,omitempty"`
	Commit       string `json:"commit,omitempty"`
	BuildDate    string `json:"build_date,omitempty"`
	GoVersion    string `json:"go_version,omitempty"`
}

// Healthz reports which route this watcher polls and how. It answers as long
// as the process serves HTTP and never looks at the provider, redis or cycles.
func Healthz(d deps.Deps) http.HandlerFunc {
	body := healthzResponse{
		Status:       "ok",
		Route:        d.Route.String(),
		RouteKey:     d.Route.Key(),
		PollInterval: d.PollInterval.String(),
		StateBackend: d.StateBackend,
		StartedAt:    d.StartTime.UTC().Format(time.RFC3339),
		Version:      d.Version,
		Commit:       d.Commit,
		BuildDate:    d.BuildDate,
		GoVersion:    d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := body
		resp.Uptime = d.Now().Sub(d.StartTime).Truncate(time.Second).String()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
