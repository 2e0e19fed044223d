package compute

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// quotaThreshold is the minimum accumulated CPU time before a quota
// request is sent (spec §4.F "CPU-Quota").
const quotaThreshold = 10 * time.Millisecond

// CPUQuota gates ContinueRun behind a resource-manager clearance once the
// task has accumulated enough CPU time (spec §4.F). The resource's token
// bucket is modeled with golang.org/x/time/rate: each request reserves
// tokens proportional to the accumulated CPU time and waits out the
// resulting delay, the local equivalent of a remote Clearance round-trip.
type CPUQuota struct {
	resource      string
	limiter       *rate.Limiter
	latency       prometheus.Histogram
	lastAccounted time.Duration
}

// NewCPUQuota builds a CPUQuota against resource, accepting cpuMillisPerSec
// tokens/sec of CPU-time budget.
func NewCPUQuota(resource string, cpuMillisPerSec float64, latency prometheus.Histogram) *CPUQuota {
	return &CPUQuota{
		resource: resource,
		limiter:  rate.NewLimiter(rate.Limit(cpuMillisPerSec), int(cpuMillisPerSec)+1),
		latency:  latency,
	}
}

// Accumulate implements spec §4.F's "cpu_time_spent = actor_elapsed +
// task_runner_elapsed - last_accounted" bookkeeping, returning whether a
// quota request should be sent now.
func (q *CPUQuota) Accumulate(actorElapsed, taskRunnerElapsed time.Duration) (spent time.Duration, shouldRequest bool) {
	total := actorElapsed + taskRunnerElapsed
	spent = total - q.lastAccounted
	if spent < quotaThreshold {
		return spent, false
	}
	q.lastAccounted = total
	return spent, true
}

// RequestClearance blocks until the quota grants spent's worth of CPU time
// (spec §4.F: "stalls the next ContinueRun until Clearance{Success}
// arrives"), observing the round-trip latency into q.latency.
func (q *CPUQuota) RequestClearance(ctx context.Context, spent time.Duration) error {
	start := time.Now()
	tokens := int(spent.Milliseconds())
	if tokens < 1 {
		tokens = 1
	}
	res := q.limiter.ReserveN(start, tokens)
	if !res.OK() {
		return context.DeadlineExceeded
	}
	delay := res.Delay()
	defer func() {
		if q.latency != nil {
			q.latency.Observe(time.Since(start).Seconds())
		}
	}()
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}
