package presence

import "sync"

const (
	// MaxActivities bounds the activity feed.
	MaxActivities = 20

	FocusSeconds = 25 * 60
	BreakSeconds = 5 * 60
)

type Room struct {
	Code          string `json:"roomCode"`
	ActiveMembers int    `json:"activeMembers"`
	FocusingNow   int    `json:"focusingNow"`
	OnBreak       int    `json:"onBreak"`
	TeamEnergy    int    `json:"teamEnergy"`
}

type SharedTimer struct {
	TimeLeft  int  `json:"timeLeft"`
	IsRunning bool `json:"isRunning"`
	Mode      Mode `json:"mode"`
}

type Member struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Role     string       `json:"role"`
	Status   MemberStatus `json:"status"`
	TimeLeft string       `json:"timeLeft"`
	Progress int          `json:"progress"`
}

type Activity struct {
	ID        int64        `json:"id"`
	User      string       `json:"user"`
	Action    string       `json:"action"`
	Timestamp string       `json:"timestamp"`
	Type      ActivityType `json:"type"`
}

// View is a copy of the room state safe to hand to renderers.
type View struct {
	Room       Room
	Timer      SharedTimer
	Members    []Member
	Activities []Activity
	SelfID     string
}

// RoomState is the local replica of a team focus room. Remote events are
// merged with Apply; local actions mutate the replica and return the
// events other replicas need.
type RoomState struct {
	mu         sync.Mutex
	selfID     string
	room       Room
	timer      SharedTimer
	members    []Member
	activities []Activity
	nextID     int64
}

// NewRoomState seeds the replica with the given roster. The member with
// selfID is added as idle if the roster does not contain it.
func NewRoomState(code string, self Member, roster []Member) *RoomState {
	members := make([]Member, 0, len(roster)+1)
	hasSelf := false
	for _, m := range roster {
		if m.Status == "" {
			m.Status = StatusIdle
		}
		if m.ID == self.ID {
			hasSelf = true
		}
		members = append(members, m)
	}
	if !hasSelf {
		if self.Status == "" {
			self.Status = StatusIdle
		}
		members = append(members, self)
	}

	s := &RoomState{
		selfID:  self.ID,
		room:    Room{Code: code},
		timer:   SharedTimer{TimeLeft: FocusSeconds, Mode: ModeFocus},
		members: members,
	}
	s.recomputeStats()
	return s
}

func (s *RoomState) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		Room:       s.room,
		Timer:      s.timer,
		Members:    append([]Member(nil), s.members...),
		Activities: append([]Activity(nil), s.activities...),
		SelfID:     s.selfID,
	}
}

// Apply merges a remote event. It reports whether the replica changed.
func (s *RoomState) Apply(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ev)
}

func (s *RoomState) apply(ev Event) bool {
	switch e := ev.(type) {
	case TimerTick:
		// Ticks count down; a larger value for the running mode is a late delivery.
		if s.timer.IsRunning && e.Mode == s.timer.Mode && e.TimeLeft > s.timer.TimeLeft {
			return false
		}
		s.timer = SharedTimer{TimeLeft: e.TimeLeft, IsRunning: e.IsRunning, Mode: e.Mode}
		return true
	case TimerSet:
		if e.Mode != nil {
			s.timer.Mode = *e.Mode
		}
		if e.IsRunning != nil {
			s.timer.IsRunning = *e.IsRunning
		}
		if e.TimeLeft != nil {
			s.timer.TimeLeft = *e.TimeLeft
		}
		return true
	case MemberUpdate:
		for i := range s.members {
			if s.members[i].ID != e.ID {
				continue
			}
			m := &s.members[i]
			if e.Update.Status != nil {
				m.Status = *e.Update.Status
			}
			if e.Update.Progress != nil {
				m.Progress = *e.Update.Progress
			}
			if e.Update.TimeLeft != nil {
				m.TimeLeft = *e.Update.TimeLeft
			}
			s.recomputeStats()
			return true
		}
		return false
	case ActivityAdd:
		s.nextID++
		entry := Activity{
			ID:        s.nextID,
			User:      e.User,
			Action:    e.Action,
			Timestamp: e.Timestamp,
			Type:      e.Type,
		}
		s.activities = append([]Activity{entry}, s.activities...)
		if len(s.activities) > MaxActivities {
			s.activities = s.activities[:MaxActivities]
		}
		return true
	case RoomStats:
		if e.ActiveMembers != nil {
			s.room.ActiveMembers = *e.ActiveMembers
		}
		if e.FocusingNow != nil {
			s.room.FocusingNow = *e.FocusingNow
		}
		if e.OnBreak != nil {
			s.room.OnBreak = *e.OnBreak
		}
		if e.TeamEnergy != nil {
			s.room.TeamEnergy = *e.TeamEnergy
		}
		return true
	}
	return false
}

// JoinFocus marks self as focusing and starts the shared focus timer.
func (s *RoomState) JoinFocus() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	timeLeft := s.timer.TimeLeft
	if timeLeft <= 0 {
		timeLeft = FocusSeconds
	}
	return s.local(
		MemberUpdate{ID: s.selfID, Update: MemberPatch{
			Status:   statusPtr(StatusFocusing),
			Progress: intPtr(5),
		}},
		TimerSet{Mode: modePtr(ModeFocus), IsRunning: boolPtr(true), TimeLeft: intPtr(max(1, timeLeft))},
		s.activity("joined the focus session", ActivityJoin),
	)
}

// TakeBreak marks self as on break and starts the shared break timer.
func (s *RoomState) TakeBreak() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.local(
		MemberUpdate{ID: s.selfID, Update: MemberPatch{Status: statusPtr(StatusBreak)}},
		TimerSet{Mode: modePtr(ModeBreak), IsRunning: boolPtr(true), TimeLeft: intPtr(BreakSeconds)},
		s.activity("started a break", ActivityBreak),
	)
}

// StopSession idles self and stops the shared timer at its full duration.
func (s *RoomState) StopSession() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := FocusSeconds
	if s.timer.Mode == ModeBreak {
		full = BreakSeconds
	}
	return s.local(
		MemberUpdate{ID: s.selfID, Update: MemberPatch{
			Status:   statusPtr(StatusIdle),
			Progress: intPtr(0),
			TimeLeft: stringPtr(""),
		}},
		TimerSet{IsRunning: boolPtr(false), TimeLeft: intPtr(full)},
		s.activity("stopped the session", ActivityStop),
	)
}

// Tick advances the shared timer by one second while it runs.
func (s *RoomState) Tick() (TimerTick, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.timer.IsRunning || s.timer.TimeLeft <= 0 {
		return TimerTick{}, false
	}
	s.timer.TimeLeft--
	return TimerTick{TimeLeft: s.timer.TimeLeft, IsRunning: s.timer.IsRunning, Mode: s.timer.Mode}, true
}

// local applies events to the replica and appends the resulting room stats.
func (s *RoomState) local(events ...Event) []Event {
	for _, ev := range events {
		s.apply(ev)
	}
	stats := RoomStats{
		ActiveMembers: intPtr(s.room.ActiveMembers),
		FocusingNow:   intPtr(s.room.FocusingNow),
		OnBreak:       intPtr(s.room.OnBreak),
	}
	return append(events, stats)
}

func (s *RoomState) activity(action string, kind ActivityType) ActivityAdd {
	return ActivityAdd{
		User:      s.selfName(),
		Action:    action,
		Timestamp: "just now",
		Type:      kind,
	}
}

func (s *RoomState) selfName() string {
	for _, m := range s.members {
		if m.ID == s.selfID && m.Name != "" {
			return m.Name
		}
	}
	return "You"
}

func (s *RoomState) recomputeStats() {
	focusing, onBreak := 0, 0
	for _, m := range s.members {
		switch m.Status {
		case StatusFocusing:
			focusing++
		case StatusBreak:
			onBreak++
		}
	}
	s.room.ActiveMembers = len(s.members)
	s.room.FocusingNow = focusing
	s.room.OnBreak = onBreak
}

func intPtr(v int) *int { return &v }
func boolPtr(v bool) *bool { return &v }
func stringPtr(v string) *string { return &v }
func modePtr(v Mode) *Mode { return &v }
func statusPtr(v MemberStatus) *MemberStatus { return &v }
