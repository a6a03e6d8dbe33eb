package ratelimit_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arunprabus/health-api/internal/ratelimit"

	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, max int, window time.Duration) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.New(ratelimit.Config{MaxRequests: max, Window: window})
	require.NoError(t, err)
	return l
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ratelimit.Config
		wantErr bool
	}{
		{name: "valid", cfg: ratelimit.Config{MaxRequests: 1, Window: time.Second}},
		{name: "one millisecond window", cfg: ratelimit.Config{MaxRequests: 1, Window: time.Millisecond}},
		{name: "zero requests", cfg: ratelimit.Config{MaxRequests: 0, Window: time.Second}, wantErr: true},
		{name: "negative requests", cfg: ratelimit.Config{MaxRequests: -3, Window: time.Second}, wantErr: true},
		{name: "zero window", cfg: ratelimit.Config{MaxRequests: 1}, wantErr: true},
		{name: "sub-millisecond window", cfg: ratelimit.Config{MaxRequests: 1, Window: time.Microsecond}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
				_, newErr := ratelimit.New(tc.cfg)
				require.ErrorIs(t, newErr, ratelimit.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfig_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   int
	}{
		{window: time.Millisecond, want: 1},
		{window: 999 * time.Millisecond, want: 1},
		{window: time.Second, want: 1},
		{window: 1001 * time.Millisecond, want: 2},
		{window: time.Minute, want: 60},
		{window: 15 * time.Minute, want: 900},
	}

	for _, tc := range tests {
		cfg := ratelimit.Config{MaxRequests: 1, Window: tc.window}
		require.Equal(t, tc.want, cfg.RetryAfterSeconds(), "window %s", tc.window)
	}
}

func TestAdmit_ConcreteScenario(t *testing.T) {
	l := newLimiter(t, 2, 60*time.Second)

	d := l.Admit("127.0.0.1", 0)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)

	d = l.Admit("127.0.0.1", 10)
	require.True(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)

	d = l.Admit("127.0.0.1", 20)
	require.False(t, d.Allowed)
	require.Equal(t, 60, d.RetryAfterSeconds)
	require.Equal(t, int64(60000), d.RetryAt)

	d = l.Admit("127.0.0.1", 60001)
	require.True(t, d.Allowed, "request at t=0 left the window")
}

func TestAdmit_IndependentClients(t *testing.T) {
	l := newLimiter(t, 1, 60*time.Second)

	require.True(t, l.Admit("a", 0).Allowed)
	require.True(t, l.Admit("b", 0).Allowed)
	require.False(t, l.Admit("a", 1).Allowed)
	require.False(t, l.Admit("b", 1).Allowed)
}

func TestAdmit_BurstAtSameInstant(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		for _, window := range []time.Duration{time.Millisecond, 1500 * time.Millisecond, time.Hour} {
			t.Run(fmt.Sprintf("n=%d/window=%s", n, window), func(t *testing.T) {
				l := newLimiter(t, n, window)
				for i := 0; i < n; i++ {
					require.True(t, l.Admit("client", 1000).Allowed, "request %d", i+1)
				}
				d := l.Admit("client", 1000)
				require.False(t, d.Allowed)
				require.Equal(t, l.Config().RetryAfterSeconds(), d.RetryAfterSeconds)
			})
		}
	}
}

func TestAdmit_RecoversAfterWindow(t *testing.T) {
	const window = 5 * time.Second
	l := newLimiter(t, 3, window)

	for i := int64(0); i < 3; i++ {
		require.True(t, l.Admit("c", 100+i).Allowed)
	}
	rejectedAt := int64(150)
	require.False(t, l.Admit("c", rejectedAt).Allowed)

	require.True(t, l.Admit("c", rejectedAt+window.Milliseconds()+1).Allowed)
}

func TestAdmit_BoundaryIsExclusive(t *testing.T) {
	l := newLimiter(t, 1, time.Second)

	require.True(t, l.Admit("c", 0).Allowed)
	require.False(t, l.Admit("c", 999).Allowed, "still inside the window")
	require.True(t, l.Admit("c", 1000).Allowed, "now - t == window is outside")
}

func TestAdmit_RejectionDoesNotConsumeBudget(t *testing.T) {
	l := newLimiter(t, 1, time.Second)

	require.True(t, l.Admit("c", 0).Allowed)
	for ts := int64(1); ts < 1000; ts += 100 {
		require.False(t, l.Admit("c", ts).Allowed)
	}
	require.True(t, l.Admit("c", 1000).Allowed, "rejected requests are not recorded")
}

func TestAdmit_DeterministicAcrossInstances(t *testing.T) {
	cfg := ratelimit.Config{MaxRequests: 3, Window: 2 * time.Second}
	first, err := ratelimit.New(cfg)
	require.NoError(t, err)
	second, err := ratelimit.New(cfg)
	require.NoError(t, err)

	stamps := []int64{0, 1, 2, 3, 500, 1999, 2000, 2001, 2002, 2003, 4100, 4101}
	for _, ts := range stamps {
		a := first.Admit("x", ts)
		b := second.Admit("y", ts)
		require.Equal(t, a, b, "timestamp %d", ts)
	}
}

func TestAllow_UsesClock(t *testing.T) {
	now := time.UnixMilli(10_000)
	l, err := ratelimit.New(
		ratelimit.Config{MaxRequests: 1, Window: time.Second},
		ratelimit.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	require.True(t, l.Allow("c").Allowed)
	require.False(t, l.Allow("c").Allowed)

	now = now.Add(time.Second)
	require.True(t, l.Allow("c").Allowed)
}

func TestSweep(t *testing.T) {
	l := newLimiter(t, 2, time.Second)

	l.Admit("stale", 0)
	l.Admit("fresh", 900)
	require.Equal(t, 2, l.Len())

	require.Equal(t, 1, l.Sweep(1000))
	require.Equal(t, 1, l.Len())

	d := l.Admit("fresh", 1000)
	require.True(t, d.Allowed)
	require.False(t, l.Admit("fresh", 1001).Allowed, "sweep kept the fresh record")

	require.Equal(t, 0, l.Sweep(1500))
	require.Equal(t, 1, l.Sweep(3000))
	require.Zero(t, l.Len())
}

func TestSweep_DoesNotChangeDecisions(t *testing.T) {
	swept := newLimiter(t, 2, time.Second)
	plain := newLimiter(t, 2, time.Second)

	for ts := int64(0); ts < 10_000; ts += 137 {
		client := fmt.Sprintf("c%d", ts%3)
		if ts%5 == 0 {
			swept.Sweep(ts)
		}
		require.Equal(t, plain.Admit(client, ts), swept.Admit(client, ts), "timestamp %d", ts)
	}
}

func TestReset(t *testing.T) {
	l := newLimiter(t, 1, time.Minute)
	l.Admit("c", 0)
	require.False(t, l.Admit("c", 1).Allowed)

	l.Reset()
	require.Zero(t, l.Len())
	require.True(t, l.Admit("c", 2).Allowed)
}

func TestAdmit_ConcurrentNeverExceedsBudget(t *testing.T) {
	const budget = 25
	l := newLimiter(t, budget, time.Hour)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if l.Admit("shared", 42).Allowed {
					admitted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(budget), admitted.Load())
}
