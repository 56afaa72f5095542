package toast

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Phase follows the show/hide animation of the single toast slot.
type Phase string

const (
	PhaseEntering Phase = "entering"
	PhaseVisible  Phase = "visible"
	PhaseExiting  Phase = "exiting"
	PhaseHidden   Phase = "hidden"
)

const (
	DefaultDuration      = 3 * time.Second
	defaultEnterDuration = 300 * time.Millisecond
	defaultExitDuration  = 300 * time.Millisecond
)

type Toast struct {
	Message  string        `json:"message"`
	Kind     Kind          `json:"type"`
	Phase    Phase         `json:"phase"`
	Duration time.Duration `json:"duration"`
	ShownAt  time.Time     `json:"shownAt"`
}

// Timer is the part of *time.Timer the manager needs.
type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

type Options struct {
	EnterDuration time.Duration
	ExitDuration  time.Duration
	AfterFunc     AfterFunc
	Now           func() time.Time
}

// Manager owns one toast slot. Show replaces whatever is on screen; nothing
// is queued.
type Manager struct {
	mu         sync.Mutex
	current    Toast
	generation uint64
	hideTimer  Timer
	phaseTimer Timer

	enter     time.Duration
	exit      time.Duration
	afterFunc AfterFunc
	now       func() time.Time
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		current:   Toast{Phase: PhaseHidden},
		enter:     opts.EnterDuration,
		exit:      opts.ExitDuration,
		afterFunc: opts.AfterFunc,
		now:       opts.Now,
	}
	if m.enter <= 0 {
		m.enter = defaultEnterDuration
	}
	if m.exit <= 0 {
		m.exit = defaultExitDuration
	}
	if m.afterFunc == nil {
		m.afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Show puts message in the slot and restarts the auto-hide countdown.
func (m *Manager) Show(message string, kind Kind, duration time.Duration) {
	if duration <= 0 {
		duration = DefaultDuration
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimersLocked()
	m.generation++
	gen := m.generation

	m.current = Toast{
		Message:  message,
		Kind:     kind,
		Phase:    PhaseEntering,
		Duration: duration,
		ShownAt:  m.now(),
	}

	m.phaseTimer = m.afterFunc(m.enter, func() { m.advance(gen, PhaseEntering, PhaseVisible) })
	m.hideTimer = m.afterFunc(duration, func() { m.hide(gen) })
}

func (m *Manager) Success(message string) { m.Show(message, KindSuccess, 0) }
func (m *Manager) Error(message string)   { m.Show(message, KindError, 0) }
func (m *Manager) Warning(message string) { m.Show(message, KindWarning, 0) }
func (m *Manager) Info(message string)    { m.Show(message, KindInfo, 0) }

// Hide starts the exit animation of the current toast.
func (m *Manager) Hide() {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()
	m.hide(gen)
}

// Current returns the toast in the slot; ok is false when nothing is mounted.
func (m *Manager) Current() (Toast, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.current.Phase != PhaseHidden
}

func (m *Manager) hide(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		return
	}
	if m.current.Phase == PhaseHidden || m.current.Phase == PhaseExiting {
		return
	}

	m.stopTimersLocked()
	m.current.Phase = PhaseExiting
	m.phaseTimer = m.afterFunc(m.exit, func() { m.advance(gen, PhaseExiting, PhaseHidden) })
}

func (m *Manager) advance(gen uint64, from, to Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation || m.current.Phase != from {
		return
	}
	m.current.Phase = to
	if to == PhaseHidden {
		m.current = Toast{Phase: PhaseHidden}
	}
}

func (m *Manager) stopTimersLocked() {
	if m.hideTimer != nil {
		m.hideTimer.Stop()
		m.hideTimer = nil
	}
	if m.phaseTimer != nil {
		m.phaseTimer.Stop()
		m.phaseTimer = nil
	}
}
