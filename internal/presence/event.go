// Package presence shares team focus room state between clients.
//
// Delivery is best effort on every transport: there is no acknowledgement,
// no ordering across publishers and no replay for late subscribers. A
// channel never receives the events it published itself.
package presence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownEvent is returned when an envelope names a type this
	// package does not know.
	ErrUnknownEvent = errors.New("presence: unknown event type")
	// ErrClosed is returned by operations on a closed channel.
	ErrClosed = errors.New("presence: channel closed")
)

type EventType string

const (
	TypeTimerTick    EventType = "TIMER_TICK"
	TypeTimerSet     EventType = "TIMER_SET"
	TypeMemberUpdate EventType = "MEMBER_UPDATE"
	TypeActivityAdd  EventType = "ACTIVITY_ADD"
	TypeRoomStats    EventType = "ROOM_STATS"
)

type Mode string

const (
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

type MemberStatus string

const (
	StatusFocusing MemberStatus = "focusing"
	StatusBreak    MemberStatus = "break"
	StatusIdle     MemberStatus = "idle"
)

type ActivityType string

const (
	ActivityCompletion ActivityType = "completion"
	ActivityBreak      ActivityType = "break"
	ActivityJoin       ActivityType = "join"
	ActivityCreate     ActivityType = "create"
	ActivityStop       ActivityType = "stop"
)

// Event is one of the payload types below.
type Event interface {
	Type() EventType
}

// TimerTick carries the full shared timer after a local tick.
type TimerTick struct {
	TimeLeft  int  `json:"timeLeft"`
	IsRunning bool `json:"isRunning"`
	Mode      Mode `json:"mode"`
}

// TimerSet is a partial shared timer patch.
type TimerSet struct {
	Mode      *Mode `json:"mode,omitempty"`
	IsRunning *bool `json:"isRunning,omitempty"`
	TimeLeft  *int  `json:"timeLeft,omitempty"`
}

type MemberPatch struct {
	Status   *MemberStatus `json:"status,omitempty"`
	Progress *int          `json:"progress,omitempty"`
	TimeLeft *string       `json:"timeLeft,omitempty"`
}

type MemberUpdate struct {
	ID     string      `json:"id"`
	Update MemberPatch `json:"update"`
}

type ActivityAdd struct {
	User      string       `json:"user"`
	Action    string       `json:"action"`
	Timestamp string       `json:"timestamp"`
	Type      ActivityType `json:"type"`
}

type RoomStats struct {
	ActiveMembers *int `json:"activeMembers,omitempty"`
	FocusingNow   *int `json:"focusingNow,omitempty"`
	OnBreak       *int `json:"onBreak,omitempty"`
	TeamEnergy    *int `json:"teamEnergy,omitempty"`
}

func (TimerTick) Type() EventType    { return TypeTimerTick }
func (TimerSet) Type() EventType     { return TypeTimerSet }
func (MemberUpdate) Type() EventType { return TypeMemberUpdate }
func (ActivityAdd) Type() EventType  { return TypeActivityAdd }
func (RoomStats) Type() EventType    { return TypeRoomStats }

// Envelope is the wire form shared by every transport.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
	TS      int64           `json:"ts"`
	Origin  string          `json:"origin,omitempty"`
}

// Encode wraps ev in an envelope stamped with ts (ms) and origin.
func Encode(ev Event, origin string, ts int64) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Type(), err)
	}
	return json.Marshal(Envelope{
		Type:    ev.Type(),
		Payload: payload,
		TS:      ts,
		Origin:  origin,
	})
}

// Decode parses an envelope and its typed payload. Unknown payload fields
// are rejected.
func Decode(data []byte) (Envelope, Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("decode envelope: %w", err)
	}

	var ev Event
	switch env.Type {
	case TypeTimerTick:
		ev = &TimerTick{}
	case TypeTimerSet:
		ev = &TimerSet{}
	case TypeMemberUpdate:
		ev = &MemberUpdate{}
	case TypeActivityAdd:
		ev = &ActivityAdd{}
	case TypeRoomStats:
		ev = &RoomStats{}
	default:
		return env, nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}

	if len(env.Payload) == 0 {
		return env, nil, fmt.Errorf("decode %s payload: missing payload", env.Type)
	}
	dec := json.NewDecoder(bytes.NewReader(env.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ev); err != nil {
		return env, nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}

	return env, deref(ev), nil
}

// Validate reports whether data is a well-formed envelope.
func Validate(data []byte) error {
	_, _, err := Decode(data)
	return err
}

func deref(ev Event) Event {
	switch e := ev.(type) {
	case *TimerTick:
		return *e
	case *TimerSet:
		return *e
	case *MemberUpdate:
		return *e
	case *ActivityAdd:
		return *e
	case *RoomStats:
		return *e
	}
	return ev
}
