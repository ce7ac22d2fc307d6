package probe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pingmon/pkg/endpoint"
)

// fakeProber returns canned outcomes per address and tracks how many
// probes are in flight per address at once.
type fakeProber struct {
	outcomes map[string]Outcome
	blocked  map[string]bool // addresses that hang until ctx cancellation

	mu       sync.Mutex
	inflight map[string]int
	maxSeen  map[string]int
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		outcomes: make(map[string]Outcome),
		blocked:  make(map[string]bool),
		inflight: make(map[string]int),
		maxSeen:  make(map[string]int),
	}
}

func (f *fakeProber) Probe(ctx context.Context, address string) Outcome {
	f.mu.Lock()
	f.inflight[address]++
	if f.inflight[address] > f.maxSeen[address] {
		f.maxSeen[address] = f.inflight[address]
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inflight[address]--
		f.mu.Unlock()
	}()

	if f.blocked[address] {
		<-ctx.Done()
		return Failure(ctx.Err())
	}
	return f.outcomes[address]
}

// recorder counts recorded outcomes per index and can trigger a callback
// on each record.
type recorder struct {
	mu       sync.Mutex
	success  map[int]int
	fail     map[int]int
	onRecord func(i int, total int)
}

func newRecorder() *recorder {
	return &recorder{success: make(map[int]int), fail: make(map[int]int)}
}

func (r *recorder) Record(i int, o Outcome) {
	r.mu.Lock()
	if o.OK {
		r.success[i]++
	} else {
		r.fail[i]++
	}
	total := r.success[i] + r.fail[i]
	cb := r.onRecord
	r.mu.Unlock()
	if cb != nil {
		cb(i, total)
	}
}

func (r *recorder) counts(i int) (success, fail int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success[i], r.fail[i]
}

func testRegistry(t *testing.T, eps ...endpoint.Endpoint) *endpoint.Registry {
	t.Helper()
	reg, err := endpoint.NewRegistry(eps)
	require.NoError(t, err)
	return reg
}

// One endpoint always succeeds, the other always fails. After a fixed
// number of completed ticks for the first, every completed tick must be
// accounted exactly once on the right counter.
func TestScheduler_CountsTicksExactly(t *testing.T) {
	reg := testRegistry(t,
		endpoint.Endpoint{Name: "a", Address: "1.1.1.1"},
		endpoint.Endpoint{Name: "b", Address: "8.8.8.8"},
	)

	fp := newFakeProber()
	fp.outcomes["1.1.1.1"] = Success(10 * time.Millisecond)
	fp.outcomes["8.8.8.8"] = Failure(errors.New("unreachable"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const ticks = 12
	rec := newRecorder()
	rec.onRecord = func(i, total int) {
		if i == 0 && total == ticks {
			cancel()
		}
	}

	sched := NewScheduler(reg, fp, rec, time.Millisecond)
	sched.Start(ctx)
	sched.Wait()

	aSuccess, aFail := rec.counts(0)
	assert.Equal(t, ticks, aSuccess)
	assert.Zero(t, aFail)

	bSuccess, bFail := rec.counts(1)
	assert.Zero(t, bSuccess)
	assert.Positive(t, bFail)
}

// A probe that hangs until its timeout (here: until shutdown) must not
// delay ticks for other endpoints.
func TestScheduler_SlowEndpointDoesNotBlockOthers(t *testing.T) {
	reg := testRegistry(t,
		endpoint.Endpoint{Name: "fast", Address: "1.1.1.1"},
		endpoint.Endpoint{Name: "stuck", Address: "203.0.113.1"},
	)

	fp := newFakeProber()
	fp.outcomes["1.1.1.1"] = Success(time.Millisecond)
	fp.blocked["203.0.113.1"] = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := newRecorder()
	rec.onRecord = func(i, total int) {
		if i == 0 && total == 5 {
			cancel()
		}
	}

	sched := NewScheduler(reg, fp, rec, time.Millisecond)
	sched.Start(ctx)

	done := make(chan struct{})
	go func() {
		sched.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not shut down; a blocked probe leaked past cancellation")
	}

	fastSuccess, _ := rec.counts(0)
	assert.Equal(t, 5, fastSuccess)

	// The stuck probe never resolved, so nothing was recorded for it.
	stuckSuccess, stuckFail := rec.counts(1)
	assert.Zero(t, stuckSuccess)
	assert.Zero(t, stuckFail)
}

// The loop is probe-then-sleep: even with an interval far shorter than
// the probe duration there is never more than one outstanding probe per
// endpoint.
func TestScheduler_OneOutstandingProbePerEndpoint(t *testing.T) {
	reg := testRegistry(t, endpoint.Endpoint{Name: "a", Address: "1.1.1.1"})

	fp := newFakeProber()
	fp.outcomes["1.1.1.1"] = Success(time.Millisecond)

	var calls atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := newRecorder()
	rec.onRecord = func(i, total int) {
		time.Sleep(2 * time.Millisecond) // make each tick outlast the interval
		if calls.Add(1) == 10 {
			cancel()
		}
	}

	sched := NewScheduler(reg, fp, rec, time.Microsecond)
	sched.Start(ctx)
	sched.Wait()

	fp.mu.Lock()
	defer fp.mu.Unlock()
	assert.Equal(t, 1, fp.maxSeen["1.1.1.1"])
}

// A probe resolving after cancellation is not recorded; shutdown never
// counts a half-finished tick.
func TestScheduler_NoRecordAfterCancel(t *testing.T) {
	reg := testRegistry(t, endpoint.Endpoint{Name: "a", Address: "203.0.113.1"})

	fp := newFakeProber()
	fp.blocked["203.0.113.1"] = true

	ctx, cancel := context.WithCancel(context.Background())
	rec := newRecorder()

	sched := NewScheduler(reg, fp, rec, time.Millisecond)
	sched.Start(ctx)

	time.Sleep(10 * time.Millisecond)
	cancel()
	sched.Wait()

	success, fail := rec.counts(0)
	assert.Zero(t, success)
	assert.Zero(t, fail)
}
