package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/monitor"
)

// Runner performs one poll cycle.
type Runner interface {
	Run(ctx context.Context) (monitor.Result, error)
}

// Poller drives a Runner once or continuously. At most one cycle runs at a
// time: the interval is measured from the end of the previous cycle.
type Poller struct {
	cycle    Runner
	status   *monitor.Status
	logger   logger.Logger
	interval time.Duration
	trigger  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a poller. status may be nil.
func NewPoller(cycle Runner, status *monitor.Status, log logger.Logger, interval time.Duration) *Poller {
	if status == nil {
		status = monitor.NewStatus()
	}
	return &Poller{
		cycle:    cycle,
		status:   status,
		logger:   log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// RunOnce runs a single cycle and returns its error.
func (p *Poller) RunOnce(ctx context.Context) (monitor.Result, error) {
	res, err := p.cycle.Run(ctx)
	p.status.Record(res)
	return res, err
}

// Run runs a cycle immediately, then again after every interval or manual
// trigger, until ctx is cancelled or Stop is called. Cycle errors are logged
// and the loop goes on.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("continuous polling started", logger.Duration("interval", p.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			p.logger.Info("continuous polling stopped", logger.Error(err))
			return nil
		}

		select {
		case <-timer.C:
		case <-p.trigger:
			p.logger.Info("manual check triggered")
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-p.stopCh:
			p.logger.Info("continuous polling stopped")
			return nil
		case <-ctx.Done():
			p.logger.Info("continuous polling stopped", logger.Error(ctx.Err()))
			return nil
		}

		// Errors are already logged by the cycle.
		_, _ = p.RunOnce(ctx)
		timer.Reset(p.interval)
	}
}

// Trigger asks for an immediate cycle. It returns false when one is already pending.
func (p *Poller) Trigger() bool {
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop ends Run after the current cycle.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Status exposes the results recorded by the poller.
func (p *Poller) Status() *monitor.Status { return p.status }
