package mw

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/utils"
)

// AllowOnlyCIDRS keeps the operational endpoints (/status, /check, /metrics,
// /readyz) to clients whose IP matches one of allowed, bare addresses or CIDRs.
// An empty list lets everyone through. Refused requests are counted on
// forbidden when it is not nil.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger, forbidden prometheus.Counter) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("no allowed networks configured, operational endpoints are public")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if m.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			if forbidden != nil {
				forbidden.Inc()
			}
			log.Warn("operational endpoint refused",
				logger.String("client_ip", ip),
				logger.String("path", r.URL.Path),
				logger.Bool("trust_proxy", trustProxy))
			w.WriteHeader(http.StatusForbidden)
			if _, err := w.Write([]byte("⛔ seatwatch endpoint restricted to allowed networks\n")); err != nil {
				log.Debug("failed to write response", logger.Error(err))
			}
		})
	}
}
