package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/monitor"
)

type countingRunner struct {
	runs    int32
	active  int32
	overlap int32
	delay   time.Duration
	err     error
}

func (r *countingRunner) Run(context.Context) (monitor.Result, error) {
	if atomic.AddInt32(&r.active, 1) > 1 {
		atomic.StoreInt32(&r.overlap, 1)
	}
	defer atomic.AddInt32(&r.active, -1)

	atomic.AddInt32(&r.runs, 1)
	time.Sleep(r.delay)
	if r.err != nil {
		return monitor.Result{Outcome: monitor.OutcomeFailed}, r.err
	}
	return monitor.Result{Outcome: monitor.OutcomeNoChange}, nil
}

func TestRunOnce(t *testing.T) {
	boom := errors.New("boom")
	r := &countingRunner{err: boom}
	p := NewPoller(r, nil, logger.Nop(), time.Hour)

	res, err := p.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("RunOnce() error = %v, want %v", err, boom)
	}
	if res.Outcome != monitor.OutcomeFailed {
		t.Errorf("Outcome = %s", res.Outcome)
	}
	if p.Status().Runs() != 1 {
		t.Errorf("Status().Runs() = %d, want 1", p.Status().Runs())
	}
}

func TestRunRepeatsWithoutOverlap(t *testing.T) {
	// Cycles take longer than the interval.
	r := &countingRunner{delay: 20 * time.Millisecond, err: errors.New("keeps going")}
	p := NewPoller(r, nil, logger.Nop(), 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if runs := atomic.LoadInt32(&r.runs); runs < 2 {
		t.Errorf("runs = %d, want at least 2", runs)
	}
	if atomic.LoadInt32(&r.overlap) != 0 {
		t.Error("cycles overlapped")
	}
}

func TestTriggerAndStop(t *testing.T) {
	r := &countingRunner{}
	p := NewPoller(r, nil, logger.Nop(), time.Hour)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.Run(context.Background())
	}()

	waitFor(t, func() bool { return atomic.LoadInt32(&r.runs) == 1 })

	if !p.Trigger() {
		t.Fatal("Trigger() = false with nothing pending")
	}
	waitFor(t, func() bool { return atomic.LoadInt32(&r.runs) == 2 })

	p.Stop()
	p.Stop()
	wg.Wait()
}

func TestTriggerPending(t *testing.T) {
	p := NewPoller(&countingRunner{}, nil, logger.Nop(), time.Hour)

	if !p.Trigger() {
		t.Fatal("first Trigger() = false")
	}
	if p.Trigger() {
		t.Error("second Trigger() = true while one is pending")
	}
}

// cancellingRunner cancels the poll context and queues a manual check while
// its first cycle is still running.
type cancellingRunner struct {
	runs    int32
	cancel  context.CancelFunc
	trigger func() bool
}

func (r *cancellingRunner) Run(context.Context) (monitor.Result, error) {
	if atomic.AddInt32(&r.runs, 1) == 1 {
		r.trigger()
		r.cancel()
	}
	return monitor.Result{Outcome: monitor.OutcomeNoChange}, nil
}

func TestRunStopsWithPendingTriggerAfterCancel(t *testing.T) {
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		r := &cancellingRunner{cancel: cancel}
		p := NewPoller(r, nil, logger.Nop(), time.Hour)
		r.trigger = p.Trigger

		if err := p.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if runs := atomic.LoadInt32(&r.runs); runs != 1 {
			t.Fatalf("attempt %d: runs = %d, want 1", i, runs)
		}
		cancel()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
