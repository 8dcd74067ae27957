package sweeper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fosscord/pkg/metrics"
)

func TestRegisterValidatesCron(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Register("users", "@hourly", func(time.Time) int { return 0 }))
	assert.Error(t, s.Register("messages", "whenever", func(time.Time) int { return 0 }))
	assert.Error(t, s.Register("users", "@daily", func(time.Time) int { return 0 }))
	assert.Equal(t, []string{"users"}, s.Targets())
}

func TestRunImmediate(t *testing.T) {
	m := metrics.New("sweeper_test")
	s := New(m)
	var at time.Time
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	require.NoError(t, s.Register("messages", "*/5 * * * *", func(now time.Time) int {
		at = now
		return 3
	}))

	n, err := s.RunImmediate("messages")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, fixed, at)

	_, err = s.RunImmediate("guilds")
	assert.Error(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "sweeper_test_cache_sweeps_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOverlappingRunSkipped(t *testing.T) {
	s := New(nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register("reactions", "@hourly", func(time.Time) int {
		close(entered)
		<-release
		return 1
	}))

	done := make(chan int)
	go func() {
		n, _ := s.RunImmediate("reactions")
		done <- n
	}()
	<-entered

	n, err := s.RunImmediate("reactions")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	close(release)
	assert.Equal(t, 1, <-done)
}

func TestScheduleLoopRunsAndStops(t *testing.T) {
	s := New(nil)
	var runs int32
	// a clock one millisecond before the minute boundary makes the first tick immediate
	base := time.Now().Truncate(time.Minute).Add(time.Minute - time.Millisecond)
	var calls int32
	s.now = func() time.Time {
		return base.Add(time.Duration(atomic.AddInt32(&calls, 1)) * time.Hour)
	}
	require.NoError(t, s.Register("users", "* * * * *", func(time.Time) int {
		atomic.AddInt32(&runs, 1)
		return 0
	}))

	s.Start(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	after := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&runs))
}
