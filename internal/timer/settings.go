package timer

import (
	"encoding/json"
	"fmt"

	"focusmate/internal/localstore"
)

// SettingsKey is the local store key holding the user's timer defaults.
const SettingsKey = "focusmate_settings_v1"

type Settings struct {
	FocusDefault int  `json:"focusDefault"`
	BreakDefault int  `json:"breakDefault"`
	EnableSound  bool `json:"enableSound"`
}

func DefaultSettings() Settings {
	return Settings{
		FocusDefault: DefaultFocusMinutes,
		BreakDefault: DefaultBreakMinutes,
		EnableSound:  true,
	}
}

// Validate reports ErrInvalidPreset for durations outside the presets.
func (s Settings) Validate() error {
	if !IsFocusPreset(s.FocusDefault) {
		return fmt.Errorf("focus default %d: %w", s.FocusDefault, ErrInvalidPreset)
	}
	if !IsBreakPreset(s.BreakDefault) {
		return fmt.Errorf("break default %d: %w", s.BreakDefault, ErrInvalidPreset)
	}
	return nil
}

// Snapshot returns a fresh snapshot using these defaults.
func (s Settings) Snapshot() Snapshot {
	return NewSnapshot(s.FocusDefault, s.BreakDefault)
}

// LoadSettings reads the stored settings with the same tolerance as the
// snapshot: unreadable values give the defaults and mistyped or invalid
// fields keep their default.
func LoadSettings(ls *localstore.Store) Settings {
	settings := DefaultSettings()
	raw, err := ls.Get(SettingsKey)
	if err != nil {
		return settings
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return settings
	}

	var focus, brk int
	if decodeField(fields, "focusDefault", &focus) && IsFocusPreset(focus) {
		settings.FocusDefault = focus
	}
	if decodeField(fields, "breakDefault", &brk) && IsBreakPreset(brk) {
		settings.BreakDefault = brk
	}
	decodeField(fields, "enableSound", &settings.EnableSound)
	return settings
}

func SaveSettings(ls *localstore.Store, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return ls.Set(SettingsKey, data)
}
