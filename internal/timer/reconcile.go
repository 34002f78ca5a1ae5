package timer

import "time"

// Transition is a mode change caused by a period running out.
type Transition struct {
	From Mode
	To   Mode
	// FocusMinutes credited to the counters; zero when a break ended.
	FocusMinutes int
}

// Reconcile brings a persisted snapshot up to now.
//
// A running snapshot whose end time is still ahead resumes with the
// remaining seconds. One whose end time has passed gets exactly one
// transition and is paused, however many periods could have elapsed. A
// paused snapshot is rewound to the full duration of its mode.
//
// The returned transition is nil when none was applied.
func Reconcile(s Snapshot, now time.Time) (Snapshot, *Transition) {
	s.sanitize()

	if !s.IsRunning || s.EndTime == nil {
		s.IsRunning = false
		s.EndTime = nil
		s.TimeLeft = s.Duration()
		return s, nil
	}

	nowMillis := now.UnixMilli()
	if *s.EndTime > nowMillis {
		remaining := s.Duration()
		if diff := *s.EndTime - nowMillis; diff > 0 && diff/1000 <= int64(remaining) {
			remaining = int(diff / 1000)
		} else {
			s.EndTime = endTimeFrom(now, remaining)
		}
		if remaining > 0 {
			s.TimeLeft = remaining
			return s, nil
		}
	}

	tr := s.advance()
	s.IsRunning = false
	s.EndTime = nil
	return s, &tr
}

// advance ends the current period: a finished focus period is credited to
// the counters and the other mode starts with its full duration.
func (s *Snapshot) advance() Transition {
	tr := Transition{From: s.Mode, To: s.Mode.Other()}
	if s.Mode == ModeFocus {
		s.SessionsToday++
		s.TotalFocusTime += s.FocusMinutes
		tr.FocusMinutes = s.FocusMinutes
	}
	s.Mode = tr.To
	s.TimeLeft = s.Duration()
	return tr
}
