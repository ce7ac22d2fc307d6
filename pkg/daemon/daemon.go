// Package daemon wires the registry, store, schedulers, exporter and
// outputs together and owns their lifecycle.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pingmon/pkg/config"
	"pingmon/pkg/endpoint"
	"pingmon/pkg/exporter"
	"pingmon/pkg/output"
	"pingmon/pkg/probe"
	"pingmon/pkg/store"
	"pingmon/pkg/sysmetrics"
)

// Daemon is the assembled probing-and-metrics engine.
type Daemon struct {
	cfg    *config.Config
	reg    *endpoint.Registry
	store  *store.Store
	prober probe.Prober

	samples chan output.Sample
}

// New validates the configuration into a registry and builds the engine.
func New(cfg *config.Config) (*Daemon, error) {
	reg, err := endpoint.NewRegistry(cfg.Endpoints)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		cfg:     cfg,
		reg:     reg,
		store:   store.New(reg, cfg.Buckets),
		prober:  probe.NewICMP(cfg.Timeout, cfg.Privileged),
		samples: make(chan output.Sample, 128),
	}, nil
}

// Store exposes the metrics store, mainly for tests and diagnostics.
func (d *Daemon) Store() *store.Store { return d.store }

// Run starts probing and serves metrics until ctx is cancelled, then
// shuts everything down: HTTP listener first, probe loops drained next,
// outputs closed last.
func (d *Daemon) Run(ctx context.Context) error {
	// Own cancel scope: if the exporter dies (listen failure), the probe
	// loops and fan-out must come down with it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(d.store)

	if d.cfg.SystemMetrics {
		if sys, err := sysmetrics.New(); err != nil {
			slog.Warn("system metrics unavailable", "err", err)
		} else {
			promReg.MustRegister(sys)
		}
	}

	outputs := make([]output.Output, 0, len(d.cfg.Outputs))
	for _, oc := range d.cfg.Outputs {
		out, err := output.New(oc)
		if err != nil {
			slog.Warn("skipping output", "output", oc.Name, "err", err)
			continue
		}
		if err := out.Start(ctx); err != nil {
			slog.Warn("output failed to start", "output", out.Name(), "err", err)
			continue
		}
		slog.Info("output started", "output", out.Name(), "type", oc.Type)
		outputs = append(outputs, out)
	}

	fanoutDone := make(chan struct{})
	go func() {
		defer close(fanoutDone)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-d.samples:
				for _, out := range outputs {
					out.Send(s)
				}
			}
		}
	}()

	sched := probe.NewScheduler(d.reg, d.prober, &sampleRecorder{d: d}, d.cfg.Interval)
	sched.Start(ctx)
	slog.Info("probing started",
		"endpoints", d.reg.Len(),
		"interval", d.cfg.Interval,
		"timeout", d.cfg.Timeout)

	srv := exporter.New(d.cfg.Listen, promReg)
	slog.Info("metrics exposed", "listen", d.cfg.Listen, "path", "/metrics")
	err := srv.Run(ctx)
	cancel()

	sched.Wait()
	<-fanoutDone
	for _, out := range outputs {
		if cerr := out.Stop(); cerr != nil {
			slog.Warn("output stop failed", "output", out.Name(), "err", cerr)
		}
	}
	return err
}

// sampleRecorder feeds each outcome into the store and mirrors it to the
// output channel. The send never blocks: when outputs fall behind, their
// samples drop while the metrics stay exact.
type sampleRecorder struct {
	d *Daemon
}

func (r *sampleRecorder) Record(i int, o probe.Outcome) {
	r.d.store.Record(i, o)

	ep := r.d.reg.At(i)
	s := output.Sample{
		Name:     ep.Name,
		Address:  ep.Address,
		Location: ep.Location,
		Time:     time.Now(),
		Success:  o.OK,
	}
	if o.OK {
		s.LatencySeconds = o.Latency.Seconds()
	}
	select {
	case r.d.samples <- s:
	default:
	}
}
