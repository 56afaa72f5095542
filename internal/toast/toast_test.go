package toast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs the callback regardless of Stop, the way a timer that already
// fired on another goroutine would.
func (c *fakeClock) fire(i int) {
	c.timers[i].f()
}

func newTestManager() (*Manager, *fakeClock) {
	clock := &fakeClock{}
	m := NewManager(Options{
		EnterDuration: 100 * time.Millisecond,
		ExitDuration:  200 * time.Millisecond,
		AfterFunc:     clock.AfterFunc,
	})
	return m, clock
}

func TestShowLifecycle(t *testing.T) {
	m, clock := newTestManager()

	_, ok := m.Current()
	assert.False(t, ok)

	m.Show("Saved", KindSuccess, 2*time.Second)
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, PhaseEntering, cur.Phase)
	assert.Equal(t, "Saved", cur.Message)

	require.Len(t, clock.timers, 2)
	assert.Equal(t, 100*time.Millisecond, clock.timers[0].d)
	assert.Equal(t, 2*time.Second, clock.timers[1].d)

	clock.fire(0)
	cur, _ = m.Current()
	assert.Equal(t, PhaseVisible, cur.Phase)

	clock.fire(1)
	cur, _ = m.Current()
	assert.Equal(t, PhaseExiting, cur.Phase)

	require.Len(t, clock.timers, 3)
	assert.Equal(t, 200*time.Millisecond, clock.timers[2].d)
	clock.fire(2)

	_, ok = m.Current()
	assert.False(t, ok)
}

func TestShowReplacesAndRestartsTimer(t *testing.T) {
	m, clock := newTestManager()

	m.Show("first", KindInfo, time.Second)
	clock.fire(0)
	m.Show("second", KindError, 5*time.Second)

	assert.True(t, clock.timers[0].stopped)
	assert.True(t, clock.timers[1].stopped)

	// The first toast's auto-hide must not dismiss the second one.
	clock.fire(1)
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "second", cur.Message)
	assert.Equal(t, KindError, cur.Kind)
	assert.Equal(t, PhaseEntering, cur.Phase)
}

func TestHide(t *testing.T) {
	m, clock := newTestManager()

	m.Hide()
	assert.Empty(t, clock.timers)

	m.Warning("careful")
	m.Hide()
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, PhaseExiting, cur.Phase)
	assert.Equal(t, DefaultDuration, cur.Duration)

	n := len(clock.timers)
	m.Hide()
	assert.Len(t, clock.timers, n)

	clock.fire(n - 1)
	_, ok = m.Current()
	assert.False(t, ok)
}
