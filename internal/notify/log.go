package notify

import (
	"context"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

// LogNotifier writes alerts to the log instead of sending them. Used for dry runs.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, alert domain.Alert) error {
	for _, c := range alert.Coaches {
		n.logger.Info("seats available",
			logger.String("route", alert.Route.String()),
			logger.Stringer("date", alert.Date),
			logger.String("train", c.TrainID),
			logger.Stringer("departure", c.DepartureTime),
			logger.String("coach", c.Name),
			logger.Int("seats", c.TotalSeats))
	}
	return nil
}
