// Package dispatcher round-robins outgoing batch submissions across N
// backend endpoints, with per-endpoint circuit breaking and failover.
//
// The middleware-stack shape (attempt timeout wrapping a circuit-guarded
// call) is carried over from an HTTP RoundTripper wrapper, generalized
// from an HTTP transport into a stack around an arbitrary batch
// Submitter (an LLM capability call, not a raw HTTP round trip).
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/dispatcher/circuit"
	"github.com/econindex/classifier/internal/errs"
)

// Submitter performs one batch submission against a named endpoint.
// Implementations wrap the LLM capability's batch ingress call.
type Submitter interface {
	Submit(ctx context.Context, endpoint config.EndpointConfig, batch interface{}) (traceID string, err error)
}

// Result is the Dispatcher's per-batch outcome.
type Result struct {
	Success bool
	TraceID string
	Error   error
}

// EndpointCounters tracks observed attempts/successes/failures for one
// endpoint, surfaced for reporting.
type EndpointCounters struct {
	Attempts   int64
	Successes  int64
	Failures   int64
}

// Dispatcher is stateless across batches beyond its cursor, which is
// protected by mutual exclusion.
type Dispatcher struct {
	endpoints      []config.EndpointConfig
	submitter      Submitter
	circuits       *circuit.Manager
	attemptTimeout time.Duration

	mu     sync.Mutex
	cursor int
	counters map[string]*EndpointCounters
}

// DefaultAttemptTimeout is the per-attempt timeout when none is configured.
const DefaultAttemptTimeout = 10 * time.Second

// New builds a Dispatcher over the given endpoints. circuits may be nil,
// in which case submissions run without circuit breaking.
func New(endpoints []config.EndpointConfig, submitter Submitter, circuits *circuit.Manager) *Dispatcher {
	counters := make(map[string]*EndpointCounters, len(endpoints))
	for _, ep := range endpoints {
		counters[ep.Name] = &EndpointCounters{}
	}
	return &Dispatcher{
		endpoints:      endpoints,
		submitter:      submitter,
		circuits:       circuits,
		attemptTimeout: DefaultAttemptTimeout,
		counters:       counters,
	}
}

// WithAttemptTimeout overrides the per-attempt timeout.
func (d *Dispatcher) WithAttemptTimeout(timeout time.Duration) *Dispatcher {
	d.attemptTimeout = timeout
	return d
}

// Submit attempts batch against up to len(endpoints) endpoints in
// round-robin order, advancing the cursor on every attempt (success or
// failure) so the next Submit call continues past whichever endpoint was
// last tried. It gives up and surfaces the last error once
// every endpoint has been tried once.
func (d *Dispatcher) Submit(ctx context.Context, batch interface{}) Result {
	n := len(d.endpoints)
	if n == 0 {
		return Result{Success: false, Error: errs.Transport("dispatcher.submit", "no endpoints configured", nil)}
	}

	var lastErr error
	for attempt := 0; attempt < n; attempt++ {
		ep := d.endpoints[d.nextCursor()]

		attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
		var traceID string
		call := func(c context.Context) error {
			var submitErr error
			traceID, submitErr = d.submitter.Submit(c, ep, batch)
			return submitErr
		}
		var err error
		if d.circuits != nil {
			err = d.circuits.Call(attemptCtx, ep.Name, call)
		} else {
			err = call(attemptCtx)
		}
		cancel()

		d.recordAttempt(ep.Name, err == nil)
		if err == nil {
			return Result{Success: true, TraceID: traceID}
		}
		lastErr = err
	}

	return Result{Success: false, Error: errs.Transport("dispatcher.submit", "all endpoints exhausted", lastErr)}
}

func (d *Dispatcher) nextCursor() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.cursor % len(d.endpoints)
	d.cursor++
	return idx
}

func (d *Dispatcher) recordAttempt(endpoint string, success bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.counters[endpoint]
	if !ok {
		c = &EndpointCounters{}
		d.counters[endpoint] = c
	}
	c.Attempts++
	if success {
		c.Successes++
	} else {
		c.Failures++
	}
}

// Counters returns a snapshot of observed per-endpoint counters.
func (d *Dispatcher) Counters() map[string]EndpointCounters {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]EndpointCounters, len(d.counters))
	for name, c := range d.counters {
		out[name] = *c
	}
	return out
}
