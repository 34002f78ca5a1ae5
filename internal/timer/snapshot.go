// Package timer implements the client-side focus timer: the focus/break
// state machine, wall-clock reconciliation of a persisted snapshot, the
// one-second runner that drives it and the local persistence of its state.
package timer

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// StorageKey is the local store key holding the snapshot.
const StorageKey = "focusmate_timer_state_v1"

const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5
)

// ErrInvalidPreset is returned when a duration is not one of the presets.
var ErrInvalidPreset = errors.New("timer: duration is not a preset")

var (
	FocusPresets = []int{25, 30, 45, 60}
	BreakPresets = []int{5, 10, 15}
)

type Mode string

const (
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

func (m Mode) Valid() bool {
	return m == ModeFocus || m == ModeBreak
}

func (m Mode) Other() Mode {
	if m == ModeBreak {
		return ModeFocus
	}
	return ModeBreak
}

// Snapshot is the persisted timer state. EndTime is set only while running
// and holds the absolute end of the current period in ms since the epoch.
type Snapshot struct {
	FocusMinutes   int    `json:"focusMinutes"`
	BreakMinutes   int    `json:"breakMinutes"`
	TimeLeft       int    `json:"timeLeft"`
	IsRunning      bool   `json:"isRunning"`
	Mode           Mode   `json:"mode"`
	EndTime        *int64 `json:"endTime"`
	SessionsToday  int    `json:"sessionsToday"`
	TotalFocusTime int    `json:"totalFocusTime"`
	CurrentStreak  int    `json:"currentStreak"`
}

// NewSnapshot returns a paused focus snapshot with a full focus period.
// Durations that are not positive fall back to the defaults.
func NewSnapshot(focusMinutes, breakMinutes int) Snapshot {
	s := Snapshot{
		FocusMinutes: focusMinutes,
		BreakMinutes: breakMinutes,
		Mode:         ModeFocus,
	}
	s.sanitize()
	s.TimeLeft = s.Duration()
	return s
}

// DefaultSnapshot is NewSnapshot(25, 5).
func DefaultSnapshot() Snapshot {
	return NewSnapshot(DefaultFocusMinutes, DefaultBreakMinutes)
}

// Duration is the full length in seconds of the current mode.
func (s Snapshot) Duration() int {
	return s.DurationOf(s.Mode)
}

func (s Snapshot) DurationOf(mode Mode) int {
	if mode == ModeBreak {
		return s.BreakMinutes * 60
	}
	return s.FocusMinutes * 60
}

// Remaining returns the seconds left at now. Running snapshots derive it
// from EndTime, clamped at zero; paused ones return TimeLeft.
func (s Snapshot) Remaining(now time.Time) int {
	if !s.IsRunning || s.EndTime == nil {
		return s.TimeLeft
	}
	remaining := int((*s.EndTime - now.UnixMilli()) / 1000)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// IsFocusPreset reports whether minutes is an allowed focus duration.
func IsFocusPreset(minutes int) bool {
	return slices.Contains(FocusPresets, minutes)
}

// IsBreakPreset reports whether minutes is an allowed break duration.
func IsBreakPreset(minutes int) bool {
	return slices.Contains(BreakPresets, minutes)
}

// NextPreset returns the preset after current, wrapping around. Values not
// in presets yield the first preset.
func NextPreset(presets []int, current int) int {
	idx := slices.Index(presets, current)
	return presets[(idx+1)%len(presets)]
}

func (s *Snapshot) sanitize() {
	if !s.Mode.Valid() {
		s.Mode = ModeFocus
	}
	if s.FocusMinutes <= 0 {
		s.FocusMinutes = DefaultFocusMinutes
	}
	if s.BreakMinutes <= 0 {
		s.BreakMinutes = DefaultBreakMinutes
	}
	if s.SessionsToday < 0 {
		s.SessionsToday = 0
	}
	if s.TotalFocusTime < 0 {
		s.TotalFocusTime = 0
	}
	if s.CurrentStreak < 0 {
		s.CurrentStreak = 0
	}
}

func endTimeFrom(now time.Time, timeLeft int) *int64 {
	end := now.UnixMilli() + int64(timeLeft)*1000
	return &end
}
