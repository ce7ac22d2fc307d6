// Package probe performs the reachability checks and schedules one
// probing loop per registered endpoint.
package probe

import (
	"context"
	"errors"
	"time"

	"github.com/go-ping/ping"
)

// Outcome is the classified result of one probe attempt: success with a
// latency, or failure. The underlying cause of a failure is kept for
// diagnostics only and never reaches the metrics.
type Outcome struct {
	OK      bool
	Latency time.Duration

	cause error
}

// Success returns a successful outcome with the measured latency.
func Success(latency time.Duration) Outcome {
	return Outcome{OK: true, Latency: latency}
}

// Failure returns a failed outcome. Timeout, unreachable host, resolution
// failure and transport errors all collapse into this one case.
func Failure(cause error) Outcome {
	return Outcome{cause: cause}
}

// Cause returns the error behind a failed outcome, nil for successes.
func (o Outcome) Cause() error { return o.cause }

// Prober sends a single probe to an address and classifies the result.
type Prober interface {
	Probe(ctx context.Context, address string) Outcome
}

var errNoReply = errors.New("no reply before timeout")

// ICMP probes endpoints with a single ICMP echo request per attempt.
type ICMP struct {
	timeout    time.Duration
	privileged bool
}

// NewICMP returns an ICMP prober. Every attempt is bounded by timeout.
// privileged selects raw-socket ICMP instead of unprivileged UDP ping.
func NewICMP(timeout time.Duration, privileged bool) *ICMP {
	return &ICMP{timeout: timeout, privileged: privileged}
}

// Probe sends one echo request and waits for the reply or the timeout.
func (p *ICMP) Probe(ctx context.Context, address string) Outcome {
	pinger, err := ping.NewPinger(address)
	if err != nil {
		// resolution failure
		return Failure(err)
	}
	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(p.privileged)

	// Run blocks until a reply or the timeout; a cancelled ctx stops the
	// in-flight attempt early.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()
	err = pinger.Run()
	close(done)
	if err != nil {
		return Failure(err)
	}
	if err := ctx.Err(); err != nil {
		return Failure(err)
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return Failure(errNoReply)
	}
	return Success(stats.AvgRtt)
}
