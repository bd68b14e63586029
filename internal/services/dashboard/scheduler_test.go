package dashboard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryImmediateAndPeriodic(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Stop()

	var runs atomic.Int32
	s.Group(GroupDashboard).Every("sensors", 20*time.Millisecond, true, func(context.Context) { runs.Add(1) })
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestEveryWithoutImmediateWaitsInterval(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Stop()

	var runs atomic.Int32
	s.Group(GroupAnalytics).Every("history", time.Hour, false, func(context.Context) { runs.Add(1) })
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestRunsMayOverlap(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Stop()

	var inFlight, maxInFlight atomic.Int32
	s.Group(GroupDashboard).Every("slow", 10*time.Millisecond, true, func(ctx context.Context) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		select {
		case <-time.After(60 * time.Millisecond):
		case <-ctx.Done():
		}
		inFlight.Add(-1)
	})
	assert.Eventually(t, func() bool { return maxInFlight.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestStopGroupCancelsOnlyThatGroup(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Stop()

	var dash, analytics atomic.Int32
	var cancelled atomic.Bool
	s.Group(GroupDashboard).Every("sensors", 10*time.Millisecond, true, func(context.Context) { dash.Add(1) })
	g := s.Group(GroupAnalytics)
	g.Every("field-map", 10*time.Millisecond, true, func(ctx context.Context) {
		analytics.Add(1)
		<-ctx.Done()
		cancelled.Store(true)
	})
	assert.Equal(t, []string{"field-map"}, g.Tasks())
	assert.Eventually(t, func() bool { return analytics.Load() >= 1 }, time.Second, 5*time.Millisecond)

	s.StopGroup(GroupAnalytics)
	assert.True(t, cancelled.Load(), "in-flight run sees cancellation before StopGroup returns")
	assert.False(t, s.Active(GroupAnalytics))
	n := analytics.Load()

	before := dash.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, analytics.Load())
	assert.Greater(t, dash.Load(), before)
	assert.True(t, s.Active(GroupDashboard))
}

func TestTaskStop(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Stop()

	var runs atomic.Int32
	task := s.Group(GroupDashboard).Every("weather", 10*time.Millisecond, true, func(context.Context) { runs.Add(1) })
	assert.Equal(t, "weather", task.Name())
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	task.Stop()
	time.Sleep(15 * time.Millisecond)
	n := runs.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, n, runs.Load())
}
