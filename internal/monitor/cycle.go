// Package monitor runs one availability check: gate, expand dates, fetch,
// normalize, diff, notify and persist.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/metrics"
)

// Source returns the normalized snapshot of one date.
type Source interface {
	Snapshot(ctx context.Context, date civil.Date, now time.Time) (domain.Snapshot, error)
}

// Notifier delivers one alert.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// Store is the durable state slot.
type Store interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}

// Locker provides mutual exclusion between instances sharing a state slot.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(context.Context) error, acquired bool, err error)
}

// Options are the cycle settings.
type Options struct {
	Route    domain.Route
	Window   domain.CheckWindow
	Dates    domain.DatePolicy
	Match    domain.MatchMode
	Location *time.Location
	// Delay is the pause between two consecutive fetches.
	Delay time.Duration
}

// Cycle runs checks. It is safe to call Run again once the previous call returned,
// not concurrently.
type Cycle struct {
	opts     Options
	source   Source
	notifier Notifier
	store    Store
	locker   Locker
	metrics  *metrics.Metrics
	logger   logger.Logger
	now      func() time.Time
}

// NewCycle wires a cycle. locker and m may be nil.
func NewCycle(opts Options, source Source, notifier Notifier, store Store, locker Locker, m *metrics.Metrics, log logger.Logger) *Cycle {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Cycle{
		opts:     opts,
		source:   source,
		notifier: notifier,
		store:    store,
		locker:   locker,
		metrics:  m,
		logger:   log,
		now:      time.Now,
	}
}

// Run performs one check. A closed window, a held lock, and "nothing new" all
// return a nil error. Fetch errors abort a single-date cycle and are skipped in
// multi-date mode. Notify and state errors always end the cycle.
func (c *Cycle) Run(ctx context.Context) (Result, error) {
	res := Result{ID: uuid.NewString(), StartedAt: c.now()}
	log := c.logger.With(logger.String("cycle", res.ID))

	err := c.run(ctx, log, &res)

	res.FinishedAt = c.now()
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		log.Error("cycle failed", logger.Error(err), logger.Duration("elapsed", res.Duration()))
	} else {
		log.Info("cycle finished",
			logger.String("outcome", string(res.Outcome)),
			logger.Int("dates", len(res.Dates)),
			logger.Int("newly_available", res.NewlyAvailable()),
			logger.Duration("elapsed", res.Duration()))
	}

	if c.metrics != nil {
		c.metrics.ObserveCycle(string(res.Outcome), res.Duration())
		if err == nil {
			c.metrics.MarkSuccess(res.FinishedAt)
		}
	}
	return res, err
}

func (c *Cycle) run(ctx context.Context, log logger.Logger, res *Result) error {
	local := res.StartedAt.In(c.opts.Location)
	if !c.opts.Window.IsOpen(domain.TimeOfDayOf(local)) {
		log.Info("outside check window",
			logger.Stringer("window", c.opts.Window),
			logger.Stringer("now", domain.TimeOfDayOf(local)))
		res.Outcome = OutcomeGated
		return nil
	}

	today := civil.DateOf(local)
	dates, err := c.opts.Dates.Expand(today)
	if err != nil {
		return err
	}

	if c.locker != nil {
		unlock, acquired, err := c.locker.TryLock(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStateIO, err)
		}
		if !acquired {
			log.Info("another instance holds the cycle lock")
			res.Outcome = OutcomeLocked
			return nil
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := unlock(releaseCtx); err != nil {
				log.Warn("failed to release cycle lock", logger.Error(err))
			}
		}()
	}

	state, err := c.store.Load(ctx)
	if err != nil {
		return err
	}

	multi := c.opts.Dates.Multi()
	var (
		fetchErrs error
		stopErr   error
		checked   int
		notified  bool
	)

	for i, date := range dates {
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				stopErr = err
				break
			}
		}

		dlog := log.With(logger.Stringer("date", date))
		dr := DateResult{Date: date}

		snap, err := c.source.Snapshot(ctx, date, c.now())
		if err != nil {
			c.countFetchError(err)
			dr.Error = err.Error()
			res.Dates = append(res.Dates, dr)
			if ctx.Err() != nil {
				stopErr = ctx.Err()
				break
			}
			if !multi {
				stopErr = err
				break
			}
			dlog.Warn("skipping date after fetch failure", logger.Error(err))
			fetchErrs = multierr.Append(fetchErrs, err)
			continue
		}

		dr.Seats = snap.TotalSeats()
		if c.metrics != nil {
			c.metrics.SeatsAvailable.WithLabelValues(date.String()).Set(float64(dr.Seats))
		}

		previous := state.Snapshot(date)
		fresh := domain.Diff(snap, previous, c.opts.Match)
		dr.NewlyAvailable = fresh
		dlog.Debug("date checked",
			logger.Int("seats", dr.Seats),
			logger.Int("coaches", len(snap.Coaches())),
			logger.Bool("cold_start", previous == nil),
			logger.Int("newly_available", len(fresh)))

		if len(fresh) > 0 {
			err := c.notifier.Notify(ctx, domain.Alert{
				Route:     c.opts.Route,
				Date:      date,
				Coaches:   fresh,
				CheckedAt: c.now(),
			})
			c.countNotification(len(fresh), err)
			if err != nil {
				dr.Error = err.Error()
				res.Dates = append(res.Dates, dr)
				stopErr = err
				break
			}
			dr.Notified = true
			notified = true
		}

		state.Snapshots[date] = snap
		checked++
		res.Dates = append(res.Dates, dr)
	}

	if checked > 0 {
		state.LastCheckedAt = c.now()
		if pruned := state.Prune(today); pruned > 0 {
			log.Debug("pruned past dates", logger.Int("count", pruned))
		}
		if err := c.store.Save(ctx, state); err != nil {
			return multierr.Append(stopErr, err)
		}
	}

	switch {
	case stopErr != nil:
		return stopErr
	case checked == 0 && fetchErrs != nil:
		return fmt.Errorf("every date failed: %w", fetchErrs)
	case notified:
		res.Outcome = OutcomeNotified
	default:
		res.Outcome = OutcomeNoChange
	}
	return nil
}

// pause waits Delay after the previous fetch returned, however long it took.
func (c *Cycle) pause(ctx context.Context) error {
	if c.opts.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.opts.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cycle) countFetchError(err error) {
	if c.metrics == nil {
		return
	}
	kind := "fetch"
	switch {
	case errors.Is(err, domain.ErrAuth):
		kind = "auth"
	case errors.Is(err, domain.ErrMalformedResponse):
		kind = "malformed"
	}
	c.metrics.FetchErrors.WithLabelValues(kind).Inc()
}

func (c *Cycle) countNotification(coaches int, err error) {
	if c.metrics == nil {
		return
	}
	if err != nil {
		c.metrics.Notifications.WithLabelValues("error").Inc()
		return
	}
	c.metrics.Notifications.WithLabelValues("sent").Inc()
	c.metrics.NewlyAvailable.Add(float64(coaches))
}
