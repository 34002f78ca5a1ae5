package timer

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// Notifier is told about every transition caused by a period running out.
type Notifier func(Transition)

type Option func(*Machine)

func WithClock(clock clockwork.Clock) Option {
	return func(m *Machine) { m.clock = clock }
}

// WithOnChange registers a hook called with the new snapshot after every
// mutation. It is used to persist the state.
func WithOnChange(fn func(Snapshot)) Option {
	return func(m *Machine) { m.onChange = fn }
}

func WithNotifier(fn Notifier) Option {
	return func(m *Machine) { m.notify = fn }
}

// Machine is the focus/break state machine. It is safe for concurrent use;
// hooks run after the lock is released.
type Machine struct {
	mu       sync.Mutex
	snap     Snapshot
	clock    clockwork.Clock
	onChange func(Snapshot)
	notify   Notifier
}

// NewMachine starts from s, which should already be reconciled.
func NewMachine(s Snapshot, opts ...Option) *Machine {
	m := &Machine{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(m)
	}
	s.sanitize()
	if !s.IsRunning {
		s.EndTime = nil
	} else if s.EndTime == nil {
		s.EndTime = endTimeFrom(m.clock.Now(), s.TimeLeft)
	}
	m.snap = s
	return m
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Toggle starts a paused timer and pauses a running one.
func (m *Machine) Toggle() {
	m.mutate(func(s *Snapshot) *Transition {
		if s.IsRunning {
			m.pause(s)
		} else {
			m.start(s)
		}
		return nil
	})
}

func (m *Machine) Start() {
	m.mutate(func(s *Snapshot) *Transition {
		if !s.IsRunning {
			m.start(s)
		}
		return nil
	})
}

func (m *Machine) Pause() {
	m.mutate(func(s *Snapshot) *Transition {
		if s.IsRunning {
			m.pause(s)
		}
		return nil
	})
}

// Tick advances a running timer by one second. When the period runs out
// the other mode starts immediately and the notifier is called. Ticks on a
// paused timer are ignored.
func (m *Machine) Tick() {
	m.mutate(func(s *Snapshot) *Transition {
		if !s.IsRunning {
			return nil
		}
		var tr *Transition
		s.TimeLeft--
		if s.TimeLeft <= 0 {
			t := s.advance()
			tr = &t
		}
		s.EndTime = endTimeFrom(m.clock.Now(), s.TimeLeft)
		return tr
	})
}

// Reset stops the timer and rewinds the current mode. Counters are kept.
func (m *Machine) Reset() {
	m.mutate(func(s *Snapshot) *Transition {
		s.IsRunning = false
		s.EndTime = nil
		s.TimeLeft = s.Duration()
		return nil
	})
}

// SwitchMode stops the timer and starts the other mode from its full
// duration.
func (m *Machine) SwitchMode() {
	m.mutate(func(s *Snapshot) *Transition {
		s.Mode = s.Mode.Other()
		s.IsRunning = false
		s.EndTime = nil
		s.TimeLeft = s.Duration()
		return nil
	})
}

// SetFocusMinutes changes the focus preset. A paused timer in focus mode is
// rewound to the new duration; otherwise the change applies to the next
// focus period.
func (m *Machine) SetFocusMinutes(minutes int) error {
	if !IsFocusPreset(minutes) {
		return ErrInvalidPreset
	}
	m.mutate(func(s *Snapshot) *Transition {
		s.FocusMinutes = minutes
		if !s.IsRunning && s.Mode == ModeFocus {
			s.TimeLeft = s.Duration()
		}
		return nil
	})
	return nil
}

// SetBreakMinutes is SetFocusMinutes for the break preset.
func (m *Machine) SetBreakMinutes(minutes int) error {
	if !IsBreakPreset(minutes) {
		return ErrInvalidPreset
	}
	m.mutate(func(s *Snapshot) *Transition {
		s.BreakMinutes = minutes
		if !s.IsRunning && s.Mode == ModeBreak {
			s.TimeLeft = s.Duration()
		}
		return nil
	})
	return nil
}

func (m *Machine) start(s *Snapshot) {
	if s.TimeLeft <= 0 {
		s.TimeLeft = s.Duration()
	}
	s.IsRunning = true
	s.EndTime = endTimeFrom(m.clock.Now(), s.TimeLeft)
}

// pause keeps the smaller of the ticked and the wall-clock remaining time
// so a stalled runner does not hand back seconds that already passed.
func (m *Machine) pause(s *Snapshot) {
	if r := s.Remaining(m.clock.Now()); r > 0 && r < s.TimeLeft {
		s.TimeLeft = r
	}
	s.IsRunning = false
	s.EndTime = nil
}

func (m *Machine) mutate(fn func(*Snapshot) *Transition) {
	m.mu.Lock()
	tr := fn(&m.snap)
	snap := m.snap
	onChange, notify := m.onChange, m.notify
	m.mu.Unlock()

	if onChange != nil {
		onChange(snap)
	}
	if tr != nil && notify != nil {
		notify(*tr)
	}
}
