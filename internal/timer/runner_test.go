package timer_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusmate/internal/timer"
)

func advanceAndWait(t *testing.T, clock *clockwork.FakeClock, ticks *atomic.Int32, want int32) {
	t.Helper()
	clock.Advance(timer.TickInterval)
	require.Eventually(t, func() bool { return ticks.Load() == want }, time.Second, time.Millisecond)
}

func TestRunnerTicksUntilStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var ticks atomic.Int32
	r := timer.NewRunner(clock, func() { ticks.Add(1) })

	r.Start(context.Background())
	r.Start(context.Background())
	assert.True(t, r.Running())

	advanceAndWait(t, clock, &ticks, 1)
	advanceAndWait(t, clock, &ticks, 2)
	advanceAndWait(t, clock, &ticks, 3)

	r.Stop()
	assert.False(t, r.Running())
	clock.Advance(5 * timer.TickInterval)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), ticks.Load(), "a second Start must not add a ticker")

	r.Stop()
}

func TestRunnerRestart(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var ticks atomic.Int32
	r := timer.NewRunner(clock, func() { ticks.Add(1) })

	r.Start(context.Background())
	advanceAndWait(t, clock, &ticks, 1)
	r.Stop()

	r.Start(context.Background())
	advanceAndWait(t, clock, &ticks, 2)
	r.Stop()
}

func TestRunnerStopsWithContext(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var ticks atomic.Int32
	r := timer.NewRunner(clock, func() { ticks.Add(1) })
	ctx, cancel := context.WithCancel(context.Background())

	r.Start(ctx)
	advanceAndWait(t, clock, &ticks, 1)
	cancel()

	require.Eventually(t, func() bool { return !r.Running() }, time.Second, time.Millisecond)
	r.Stop()
}

func TestRunnerDrivesMachine(t *testing.T) {
	clock := clockwork.NewFakeClockAt(refNow)
	m := timer.NewMachine(timer.DefaultSnapshot(), timer.WithClock(clock))
	var ticks atomic.Int32
	r := timer.NewRunner(clock, func() {
		m.Tick()
		ticks.Add(1)
	})

	m.Start()
	r.Start(context.Background())
	defer r.Stop()

	for i := int32(1); i <= 3; i++ {
		advanceAndWait(t, clock, &ticks, i)
	}
	assert.Equal(t, 1497, m.Snapshot().TimeLeft)
}
