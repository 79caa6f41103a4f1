package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

// Check requests an immediate availability check.
func Check(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Trigger != nil && d.Trigger() {
			d.Logger.Info("manual check triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Check triggered\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		d.Logger.Warn("manual check already pending",
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte("⏳ A check is already pending, please wait\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
