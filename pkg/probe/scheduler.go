package probe

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pingmon/pkg/endpoint"
)

// Recorder receives the outcome of each completed probe for the endpoint
// at registry index i.
type Recorder interface {
	Record(i int, o Outcome)
}

// Scheduler runs one probing loop per registered endpoint. Each loop is
// strictly probe, record, sleep: a new tick starts only after the previous
// probe has resolved, so there is at most one outstanding probe per
// endpoint at any time. Loops are independent; one endpoint's slow or dead
// network never delays another's schedule.
type Scheduler struct {
	reg      *endpoint.Registry
	prober   Prober
	rec      Recorder
	interval time.Duration

	wg sync.WaitGroup
}

// NewScheduler builds a scheduler over the given registry. Outcomes are
// delivered to rec; interval separates consecutive probes per endpoint.
func NewScheduler(reg *endpoint.Registry, prober Prober, rec Recorder, interval time.Duration) *Scheduler {
	return &Scheduler{reg: reg, prober: prober, rec: rec, interval: interval}
}

// Start launches the per-endpoint loops. They run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.reg.Len(); i++ {
		s.wg.Add(1)
		go func(i int) {
			defer s.wg.Done()
			s.run(ctx, i)
		}(i)
	}
}

// Wait blocks until every probing loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, i int) {
	ep := s.reg.At(i)

	// First probe fires immediately, then once per interval.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		o := s.prober.Probe(ctx, ep.Address)
		if ctx.Err() != nil {
			// Shutdown cancelled the attempt; don't count it.
			return
		}
		s.rec.Record(i, o)
		if !o.OK {
			slog.Debug("probe failed",
				"name", ep.Name,
				"address", ep.Address,
				"err", o.Cause())
		}

		timer.Reset(s.interval)
	}
}
