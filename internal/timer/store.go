package timer

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"focusmate/internal/localstore"
)

// Store persists the snapshot in the local store under StorageKey.
type Store struct {
	ls    *localstore.Store
	clock clockwork.Clock
	log   *zap.Logger
}

func NewStore(ls *localstore.Store, clock clockwork.Clock, log *zap.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{ls: ls, clock: clock, log: log}
}

// Load never fails. A missing or unreadable value yields defaults; fields
// with the wrong JSON type are skipped one by one and the rest applied.
// The result is reconciled against the current time, so the returned
// transition reports a period that ran out while nothing was running.
func (s *Store) Load(defaults Snapshot) (Snapshot, *Transition) {
	snap := s.read(defaults)
	return Reconcile(snap, s.clock.Now())
}

func (s *Store) read(defaults Snapshot) Snapshot {
	raw, err := s.ls.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.log.Debug("reading timer snapshot", zap.Error(err))
		}
		return defaults
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		s.log.Debug("discarding malformed timer snapshot", zap.Error(err))
		return defaults
	}

	snap := defaults
	decodeField(fields, "focusMinutes", &snap.FocusMinutes)
	decodeField(fields, "breakMinutes", &snap.BreakMinutes)
	decodeField(fields, "timeLeft", &snap.TimeLeft)
	decodeField(fields, "isRunning", &snap.IsRunning)
	decodeField(fields, "sessionsToday", &snap.SessionsToday)
	decodeField(fields, "totalFocusTime", &snap.TotalFocusTime)
	decodeField(fields, "currentStreak", &snap.CurrentStreak)

	var mode Mode
	if decodeField(fields, "mode", &mode) && mode.Valid() {
		snap.Mode = mode
	}

	// endTime may have been written with a fractional part.
	var endTime float64
	if decodeField(fields, "endTime", &endTime) && !math.IsNaN(endTime) && !math.IsInf(endTime, 0) {
		end := int64(max(-maxSafeMillis, min(endTime, maxSafeMillis)))
		snap.EndTime = &end
	} else {
		snap.EndTime = nil
	}
	return snap
}

// maxSafeMillis bounds a stored endTime to the integers a float64 holds
// exactly, keeping the arithmetic in Reconcile clear of overflow.
const maxSafeMillis = 1 << 53

// Save overwrites the stored snapshot. Failures are logged and dropped.
func (s *Store) Save(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Debug("encoding timer snapshot", zap.Error(err))
		return
	}
	if err := s.ls.Set(StorageKey, data); err != nil {
		s.log.Debug("saving timer snapshot", zap.Error(err))
	}
}

// decodeField unmarshals fields[name] into dst and reports whether it did.
// A JSON null counts as absent.
func decodeField(fields map[string]json.RawMessage, name string, dst any) bool {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
