package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock drives the limiter's view of time from the test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
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

func newTestLimiter(max int, window time.Duration) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	l := NewLimiter(max, window)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_FixedWindow(t *testing.T) {
	l, clock := newTestLimiter(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		res := l.Allow("client-a")
		if !res.Allowed {
			t.Fatalf("request %d blocked, want allowed", i+1)
		}
		if res.Remaining != 5-(i+1) {
			t.Errorf("request %d Remaining = %d, want %d", i+1, res.Remaining, 5-(i+1))
		}
	}

	res := l.Allow("client-a")
	if res.Allowed {
		t.Fatal("6th request allowed, want blocked")
	}
	if res.Remaining != 0 {
		t.Errorf("blocked Remaining = %d, want 0", res.Remaining)
	}

	// The window boundary is tracked from the first request.
	wantReset := clock.Now().Add(15 * time.Minute)
	if !res.ResetAt.Equal(wantReset) {
		t.Errorf("ResetAt = %v, want %v", res.ResetAt, wantReset)
	}

	clock.Advance(15*time.Minute + time.Second)
	if res := l.Allow("client-a"); !res.Allowed {
		t.Error("request after window elapsed blocked, want allowed")
	}
}

func TestLimiter_BlockedCallsDoNotExtendWindow(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	l.Allow("client-a")
	l.Allow("client-a")

	// Hammering a blocked identifier must not move its reset time.
	first := l.Allow("client-a")
	clock.Advance(30 * time.Second)
	second := l.Allow("client-a")
	if second.Allowed {
		t.Fatal("request within blocked window allowed")
	}
	if !second.ResetAt.Equal(first.ResetAt) {
		t.Errorf("ResetAt moved from %v to %v during blocked window", first.ResetAt, second.ResetAt)
	}

	clock.Advance(30*time.Second + time.Second)
	if res := l.Allow("client-a"); !res.Allowed {
		t.Error("request after original window elapsed blocked, want allowed")
	}
}

func TestLimiter_IndependentIdentifiers(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	if res := l.Allow("client-a"); !res.Allowed {
		t.Fatal("first request for client-a blocked")
	}
	if res := l.Allow("client-a"); res.Allowed {
		t.Fatal("second request for client-a allowed")
	}
	if res := l.Allow("client-b"); !res.Allowed {
		t.Error("client-b blocked by client-a's window")
	}
}

func TestLimiter_Prune(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	l.Allow("stale-1")
	l.Allow("stale-2")
	clock.Advance(2 * time.Minute)
	l.Allow("fresh")

	if got := l.Size(); got != 3 {
		t.Fatalf("Size() before prune = %d, want 3", got)
	}
	if removed := l.Prune(); removed != 2 {
		t.Errorf("Prune() = %d, want 2", removed)
	}
	if got := l.Size(); got != 1 {
		t.Errorf("Size() after prune = %d, want 1", got)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(100, time.Minute)

	var wg sync.WaitGroup
	allowed := make([]int, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if l.Allow("shared").Allowed {
					allowed[g]++
				}
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, n := range allowed {
		total += n
	}
	if total != 100 {
		t.Errorf("allowed %d requests across goroutines, want exactly 100", total)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("Mozilla/5.0", "en-US")
	b := Fingerprint("Mozilla/5.0", "en-US")
	if a != b {
		t.Errorf("same inputs produced different fingerprints: %q vs %q", a, b)
	}
	if a == "" {
		t.Fatal("empty fingerprint")
	}
	if len(a) != 40 {
		t.Errorf("fingerprint length = %d, want 40 hex chars", len(a))
	}

	tests := []struct {
		name      string
		userAgent string
		language  string
	}{
		{name: "different user agent", userAgent: "curl/8.0", language: "en-US"},
		{name: "different language", userAgent: "Mozilla/5.0", language: "de-DE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fingerprint(tt.userAgent, tt.language); got == a {
				t.Errorf("Fingerprint(%q, %q) collides with baseline", tt.userAgent, tt.language)
			}
		})
	}
}
