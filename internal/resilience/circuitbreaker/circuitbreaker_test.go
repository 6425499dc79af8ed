package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agentdesk/internal/apperr"
)

// fakeClock is a manually advanced Clock for deterministic timeout tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock Clock, failureThreshold, halfOpenSuccesses int, resetTimeout time.Duration) *CircuitBreaker {
	return New(Config{
		Name:                     "test-dependency",
		FailureThreshold:         failureThreshold,
		ResetTimeout:             resetTimeout,
		HalfOpenSuccessThreshold: halfOpenSuccesses,
		Clock:                    clock,
	})
}

func fail(ctx context.Context) (any, error) {
	return nil, errors.New("dependency blew up")
}

func succeed(ctx context.Context) (any, error) {
	return "ok", nil
}

func TestBreaker_StartsClosedAndPassesThrough(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 3, 2, 100*time.Millisecond)

	result, err := cb.Execute(context.Background(), succeed)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %v", result)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 3, 2, 100*time.Millisecond)

	_, _ = cb.Execute(context.Background(), fail)
	_, _ = cb.Execute(context.Background(), fail)
	_, _ = cb.Execute(context.Background(), succeed)

	if got := cb.Stats().FailureCount; got != 0 {
		t.Errorf("failure count = %d, want 0 after success", got)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestBreaker_TripsOpenAtThreshold(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 3, 2, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(context.Background(), fail)
		if err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
		if IsRejection(err) {
			t.Fatalf("call %d: operation error replaced by rejection", i)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open after 3 failures", cb.State())
	}
}

func TestBreaker_OpenRejectsWithoutInvoking(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 3, 2, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(context.Background(), fail)
	}

	invoked := false
	_, err := cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
		invoked = true
		return "ok", nil
	})

	if invoked {
		t.Error("operation must not run while the circuit is open")
	}
	if !IsRejection(err) {
		t.Fatalf("expected open rejection, got %v", err)
	}

	ce := apperr.Normalize(err)
	if ce.Kind() != apperr.ProviderUnavailable {
		t.Errorf("rejection kind = %q", ce.Kind())
	}
	if v, _ := ce.Detail("failure_count"); v != 3 {
		t.Errorf("failure_count detail = %v, want 3", v)
	}
	if _, ok := ce.Detail("last_failure_time"); !ok {
		t.Error("rejection must carry last_failure_time")
	}
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 3, 2, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(context.Background(), fail)
	}

	clock.Advance(150 * time.Millisecond)

	invoked := false
	_, err := cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
		invoked = true
		return "probe ok", nil
	})

	if !invoked {
		t.Fatal("probe must be attempted after the reset timeout")
	}
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("state = %v, want half-open", cb.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 3, 2, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(context.Background(), fail)
	}
	clock.Advance(150 * time.Millisecond)

	_, err := cb.Execute(context.Background(), fail)

	if IsRejection(err) {
		t.Fatal("half-open probe must see the operation's own error")
	}
	if cb.State() != StateOpen {
		t.Errorf("state = %v, want open after failed probe", cb.State())
	}

	// The fresh failure restarts the cooldown.
	invoked := false
	_, _ = cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
		invoked = true
		return nil, nil
	})
	if invoked {
		t.Error("circuit must reject again before the new timeout elapses")
	}
}

func TestBreaker_RecoveryScenario(t *testing.T) {
	// threshold=2, resetTimeout=100ms, halfOpenSuccessThreshold=2.
	clock := newFakeClock()
	cb := newTestBreaker(clock, 2, 2, 100*time.Millisecond)

	_, _ = cb.Execute(context.Background(), fail)
	_, _ = cb.Execute(context.Background(), fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open after 2 failures", cb.State())
	}

	clock.Advance(150 * time.Millisecond)

	if _, err := cb.Execute(context.Background(), succeed); err != nil {
		t.Fatalf("first probe: %v", err)
	}
	stats := cb.Stats()
	if stats.State != StateHalfOpen || stats.SuccessCount != 1 {
		t.Fatalf("after first probe: state=%v successCount=%d, want half-open/1",
			stats.State, stats.SuccessCount)
	}

	if _, err := cb.Execute(context.Background(), succeed); err != nil {
		t.Fatalf("second probe: %v", err)
	}
	stats = cb.Stats()
	if stats.State != StateClosed {
		t.Errorf("state = %v, want closed after recovery", stats.State)
	}
	if stats.SuccessCount != 0 || stats.FailureCount != 0 {
		t.Errorf("counters = %d/%d, want 0/0", stats.SuccessCount, stats.FailureCount)
	}
}

func TestBreaker_ResetForcesClosed(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 2, 2, time.Hour)

	_, _ = cb.Execute(context.Background(), fail)
	_, _ = cb.Execute(context.Background(), fail)
	if cb.State() != StateOpen {
		t.Fatal("precondition: breaker should be open")
	}

	cb.Reset()

	stats := cb.Stats()
	if stats.State != StateClosed {
		t.Errorf("state = %v, want closed", stats.State)
	}
	if stats.FailureCount != 0 || stats.SuccessCount != 0 {
		t.Errorf("counters not zeroed: %+v", stats)
	}
	if !stats.LastFailureTime.IsZero() {
		t.Error("last failure time not cleared")
	}

	if _, err := cb.Execute(context.Background(), succeed); err != nil {
		t.Errorf("call after reset failed: %v", err)
	}
}

func TestBreaker_ConcurrentCallsKeepCountsConsistent(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 1000, 2, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _ = cb.Execute(context.Background(), fail)
			}
		}()
	}
	wg.Wait()

	if got := cb.Stats().FailureCount; got != 500 {
		t.Errorf("failure count = %d, want 500", got)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed below threshold", cb.State())
	}
}

func TestDo_TypedResult(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 3, 2, time.Hour)

	got, err := Do(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d, want 42", got)
	}
}
