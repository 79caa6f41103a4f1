package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/seatwatch/internal/monitor"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Route        string                     `json:"route"`
	PollInterval string                     `json:"poll_interval"`
	Cycles       int                        `json:"cycles"`
	LastSuccess  string                     `json:"last_success,omitempty"`
	LastCycle    *monitor.Result            `json:"last_cycle,omitempty"`
	Components   map[string]componentStatus `json:"components"`
}

// Status reports the latest cycle result and the state backend health.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		resp := statusResponse{
			Route:        d.Route.String(),
			PollInterval: d.PollInterval.String(),
			Components: map[string]componentStatus{
				"state": checkState(r.Context(), d),
			},
		}
		if d.Status != nil {
			resp.Cycles = d.Status.Runs()
			if last, ok := d.Status.Last(); ok {
				resp.LastCycle = &last
			}
			if ts := d.Status.LastSuccess(); !ts.IsZero() {
				resp.LastSuccess = ts.Format(time.RFC3339)
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func checkState(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Backend: d.StateBackend}
	}
	return checkRedis(ctx, d)
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: false, Backend: "redis", Error: "client not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Backend: "redis", Error: "unreachable"}
	}
	return componentStatus{OK: true, Backend: "redis"}
}
