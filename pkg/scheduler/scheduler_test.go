package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestScheduleFiresAfterDelay(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := New(clock, quietLogger())
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule("escalate:1", 30*time.Second, func(ctx context.Context) {
		fired.Add(1)
	})
	require.Equal(t, 1, s.Pending())

	clock.Advance(29 * time.Second)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, s.Pending())

	// One-shot: advancing further never re-runs it.
	clock.Advance(time.Minute)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestCancelPreventsRun(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := New(clock, quietLogger())
	defer s.Stop()

	var fired atomic.Bool
	s.Schedule("offer_expiry:1", 15*time.Second, func(ctx context.Context) {
		fired.Store(true)
	})

	require.True(t, s.Cancel("offer_expiry:1"))
	require.False(t, s.Cancel("offer_expiry:1"))

	clock.Advance(20 * time.Second)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestScheduleReplacesSameKey(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := New(clock, quietLogger())
	defer s.Stop()

	var first, second atomic.Int32
	s.Schedule("k", 10*time.Second, func(ctx context.Context) { first.Add(1) })
	s.Schedule("k", 20*time.Second, func(ctx context.Context) { second.Add(1) })
	require.Equal(t, 1, s.Pending())

	clock.Advance(20 * time.Second)
	clock.BlockUntilReady()
	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestStopCancelsPendingTasks(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := New(clock, quietLogger())

	var fired atomic.Bool
	s.Schedule("a", time.Second, func(ctx context.Context) { fired.Store(true) })
	s.Stop()

	s.Schedule("b", time.Second, func(ctx context.Context) { fired.Store(true) })
	assert.Equal(t, 0, s.Pending())

	clock.Advance(time.Minute)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestPanickingTaskIsContained(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := New(clock, quietLogger())
	defer s.Stop()

	var after atomic.Bool
	s.Schedule("boom", time.Second, func(ctx context.Context) { panic("boom") })
	s.Schedule("next", 2*time.Second, func(ctx context.Context) { after.Store(true) })

	clock.Advance(2 * time.Second)
	clock.BlockUntilReady()
	require.Eventually(t, after.Load, time.Second, 5*time.Millisecond)
}
