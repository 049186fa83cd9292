package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/billie-coop/redpen/internal/lint"
)

// countingProvider records every Analyze call and can block until
// released, to exercise the in-flight sharing path.
type countingProvider struct {
	calls   atomic.Int64
	started chan struct{} // closed on the first call, if set
	gate    chan struct{}
	results []lint.Finding
	err     error
}

func (p *countingProvider) Analyze(ctx context.Context, text, scope string) ([]lint.Finding, error) {
	if p.calls.Add(1) == 1 && p.started != nil {
		close(p.started)
	}
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.results, p.err
}

func oneFinding(rule string) []lint.Finding {
	return []lint.Finding{{Rule: rule, Message: "m", Span: lint.Span{Start: 0, End: 3}}}
}

func TestLint_DeduplicatesConcurrentRequests(t *testing.T) {
	p := &countingProvider{gate: make(chan struct{}), results: oneFinding("spelling")}
	c := New(p)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]lint.Finding, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Lint(context.Background(), "Teh cat", "example.com")
		}()
	}

	// Let all callers reach the cache before releasing the provider.
	time.Sleep(20 * time.Millisecond)
	close(p.gate)
	wg.Wait()

	if got := p.calls.Load(); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d returned error: %v", i, errs[i])
		}
		if len(results[i]) != 1 || results[i][0].Rule != "spelling" {
			t.Fatalf("caller %d got unexpected findings: %+v", i, results[i])
		}
	}
}

func TestLint_RepeatedRequestWithinTTLHitsCache(t *testing.T) {
	p := &countingProvider{results: oneFinding("spelling")}
	c := New(p)

	for range 3 {
		if _, err := c.Lint(context.Background(), "same text", "example.com"); err != nil {
			t.Fatal(err)
		}
	}

	if got := p.calls.Load(); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
}

func TestLint_ScopeParticipatesInKey(t *testing.T) {
	p := &countingProvider{results: oneFinding("spelling")}
	c := New(p)

	_, _ = c.Lint(context.Background(), "same text", "a.example")
	_, _ = c.Lint(context.Background(), "same text", "b.example")

	if got := p.calls.Load(); got != 2 {
		t.Fatalf("provider called %d times, want 2 (distinct scopes)", got)
	}
}

func TestLint_ExpiredEntryIsNeverReturned(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	p := &countingProvider{results: oneFinding("spelling")}
	c := New(p, WithTTL(10*time.Second), WithClock(func() time.Time { return clock() }))

	if _, err := c.Lint(context.Background(), "text", "s"); err != nil {
		t.Fatal(err)
	}

	// Still within capacity, but past the TTL.
	now = now.Add(11 * time.Second)

	if _, err := c.Lint(context.Background(), "text", "s"); err != nil {
		t.Fatal(err)
	}
	if got := p.calls.Load(); got != 2 {
		t.Fatalf("provider called %d times, want 2 after expiry", got)
	}
}

func TestLint_PendingEntryOutlivesTTLAndIsJoined(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	p := &countingProvider{
		started: make(chan struct{}),
		gate:    make(chan struct{}),
		results: oneFinding("spelling"),
	}
	c := New(p, WithTTL(50*time.Millisecond), WithClock(clock))

	first := make(chan error, 1)
	go func() {
		_, err := c.Lint(context.Background(), "same text", "s")
		first <- err
	}()
	<-p.started

	// The request is now in flight and older than the TTL. A late caller
	// must still join it rather than replace it and issue a second one.
	advance(100 * time.Millisecond)
	second := make(chan error, 1)
	go func() {
		_, err := c.Lint(context.Background(), "same text", "s")
		second <- err
	}()

	// Let the second caller reach the cache before releasing the provider.
	time.Sleep(20 * time.Millisecond)
	close(p.gate)

	for _, ch := range []chan error{first, second} {
		if err := <-ch; err != nil {
			t.Fatal(err)
		}
	}
	if got := p.calls.Load(); got != 1 {
		t.Fatalf("provider called %d times, want 1 (stale pending entry must be joined)", got)
	}
}

func TestLint_CapacityPressureNeverEvictsPendingEntry(t *testing.T) {
	started := make(chan struct{}, 4)
	gate := make(chan struct{})
	var slowCalls atomic.Int64
	p := lint.ProviderFunc(func(_ context.Context, text, _ string) ([]lint.Finding, error) {
		if text == "slow" {
			slowCalls.Add(1)
			select {
			case started <- struct{}{}:
			default:
			}
			<-gate
		}
		return oneFinding("spelling"), nil
	})
	c := New(p, WithCapacity(1))

	slowDone := make(chan error, 1)
	go func() {
		_, err := c.Lint(context.Background(), "slow", "s")
		slowDone <- err
	}()
	<-started

	// Churn well past capacity while the slow request is in flight.
	for i := range 3 {
		if _, err := c.Lint(context.Background(), fmt.Sprintf("fast %d", i), "s"); err != nil {
			t.Fatal(err)
		}
	}

	// Settled entries were evicted; the pending one survived the churn.
	if got := c.Len(); got != 2 {
		t.Fatalf("len = %d, want 2 (pending entry plus most recent settled)", got)
	}

	// A racing caller for the same key joins the surviving entry.
	joined := make(chan error, 1)
	go func() {
		_, err := c.Lint(context.Background(), "slow", "s")
		joined <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	for _, ch := range []chan error{slowDone, joined} {
		if err := <-ch; err != nil {
			t.Fatal(err)
		}
	}
	if got := slowCalls.Load(); got != 1 {
		t.Fatalf("slow request issued %d times, want 1", got)
	}
}

func TestLint_EvictsLeastRecentlyUsed(t *testing.T) {
	p := &countingProvider{results: oneFinding("spelling")}
	c := New(p, WithCapacity(2))

	ctx := context.Background()
	_, _ = c.Lint(ctx, "one", "s")
	_, _ = c.Lint(ctx, "two", "s")
	_, _ = c.Lint(ctx, "one", "s") // touch "one" so "two" is LRU
	_, _ = c.Lint(ctx, "three", "s")

	p.calls.Store(0)
	_, _ = c.Lint(ctx, "one", "s")
	if got := p.calls.Load(); got != 0 {
		t.Fatalf(`"one" should still be cached, provider called %d times`, got)
	}
	_, _ = c.Lint(ctx, "two", "s")
	if got := p.calls.Load(); got != 1 {
		t.Fatalf(`"two" should have been evicted, provider calls = %d, want 1`, got)
	}
}

func TestLint_FailedCallIsNotRetained(t *testing.T) {
	p := &countingProvider{err: errors.New("connection refused")}
	c := New(p)

	if _, err := c.Lint(context.Background(), "text", "s"); err == nil {
		t.Fatal("expected error from provider")
	}
	if c.Len() != 0 {
		t.Fatalf("failed entry retained, len = %d", c.Len())
	}

	// The next identical request must reach the provider again.
	p.err = nil
	p.results = oneFinding("spelling")
	if _, err := c.Lint(context.Background(), "text", "s"); err != nil {
		t.Fatal(err)
	}
	if got := p.calls.Load(); got != 2 {
		t.Fatalf("provider called %d times, want 2", got)
	}
}

func TestClear_EmptiesCache(t *testing.T) {
	p := &countingProvider{results: oneFinding("spelling")}
	c := New(p)

	ctx := context.Background()
	for i := range 5 {
		_, _ = c.Lint(ctx, fmt.Sprintf("text %d", i), "s")
	}
	if c.Len() != 5 {
		t.Fatalf("len = %d, want 5", c.Len())
	}

	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("len after Clear = %d, want 0", c.Len())
	}
	_, _ = c.Lint(ctx, "text 0", "s")
	if got := p.calls.Load(); got != 6 {
		t.Fatalf("provider called %d times, want 6 (cleared entries refetch)", got)
	}
}
