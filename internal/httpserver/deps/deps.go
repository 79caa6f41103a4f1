package deps

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/monitor"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time   // for testing, defaults to time.Now
	AllowedCIDRS []string           // IPs allowed to reach the operational endpoints
	TrustProxy   bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Route        domain.Route       // monitored route, reported by /status
	PollInterval time.Duration      // pause between cycles, reported by /status
	StateBackend string             // "file" | "redis"
	RedisClient  *redis.Client      // nil unless the redis state backend is used
	Status       *monitor.Status    // latest cycle results
	Trigger      func() bool        // requests an immediate cycle, false if one is already pending
	Metrics      http.Handler       // prometheus exposition handler, nil disables /metrics
	Forbidden    prometheus.Counter // requests refused by AllowedCIDRS, may be nil
	CheckLimit   int                // manual checks allowed per client per minute
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
