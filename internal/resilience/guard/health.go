package guard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Probe checks one dependency's health, independent of the guarded call
// path. Probes should be cheap: a provider model listing, `git rev-parse`,
// a storage ping.
type Probe func(ctx context.Context) error

// ProbeResult is the outcome of one health probe.
type ProbeResult struct {
	Healthy bool
	Err     error
	Latency time.Duration
}

// CheckAll runs every probe concurrently and reports per-dependency results.
// A failing probe never aborts the others; the returned error is always nil
// unless the context itself is done before the sweep starts.
func CheckAll(ctx context.Context, probes map[string]Probe) (map[string]ProbeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make(map[string]ProbeResult, len(probes))

	eg, egCtx := errgroup.WithContext(ctx)
	for name, probe := range probes {
		eg.Go(func() error {
			start := time.Now()
			err := probe(egCtx)
			mu.Lock()
			results[name] = ProbeResult{
				Healthy: err == nil,
				Err:     err,
				Latency: time.Since(start),
			}
			mu.Unlock()
			// Probe failures are results, not sweep failures.
			return nil
		})
	}
	_ = eg.Wait()

	return results, nil
}
