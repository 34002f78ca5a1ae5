package service

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name       string
		current    int
		lastActive *time.Time
		want       int
	}{
		{name: "first session", current: 0, lastActive: nil, want: 1},
		{name: "same day keeps streak", current: 3, lastActive: at(-2 * time.Hour), want: 3},
		{name: "previous day extends streak", current: 3, lastActive: at(-20 * time.Hour), want: 4},
		{name: "yesterday just before midnight", current: 1, lastActive: at(-(9*time.Hour + 31*time.Minute)), want: 2},
		{name: "gap still extends streak", current: 7, lastActive: at(-72 * time.Hour), want: 8},
		{name: "zero current restarts", current: 0, lastActive: at(-24 * time.Hour), want: 1},
		{name: "same day with zero current", current: 0, lastActive: at(-time.Hour), want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextStreak(tc.current, tc.lastActive, now))
		})
	}
}

func TestNextStreakNeverDecreasesWithinDay(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		current := rapid.IntRange(1, 1000).Draw(t, "current")
		day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, rapid.IntRange(0, 365).Draw(t, "day"))
		last := day.Add(time.Duration(rapid.IntRange(0, 86399).Draw(t, "lastSec")) * time.Second)
		now := day.Add(time.Duration(rapid.IntRange(0, 86399).Draw(t, "nowSec")) * time.Second)

		if got := nextStreak(current, &last, now); got != current {
			t.Fatalf("same-day streak changed from %d to %d", current, got)
		}
	})
}

func TestNextStreakUsesLocalCalendarDay(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*3600)
	// Both instants fall on the 9th in UTC, but on the 9th and the 10th in UTC+10.
	last := time.Date(2024, 3, 9, 13, 30, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, zone)

	assert.Equal(t, 6, nextStreak(5, &last, now))
	assert.Equal(t, 5, nextStreak(5, &last, now.In(time.UTC)))
}

func TestOriginAllowed(t *testing.T) {
	allowed := map[string]struct{}{"http://localhost:5173": {}}

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "no origin", origin: "", want: true},
		{name: "configured origin", origin: "http://localhost:5173", want: true},
		{name: "same host", origin: "http://example.com", want: true},
		{name: "foreign origin", origin: "https://evil.test", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com/api/rooms/abc/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.want, originAllowed(req, allowed))
		})
	}

	wildcard := map[string]struct{}{"*": {}}
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.Header.Set("Origin", "https://anywhere.test")
	assert.True(t, originAllowed(req, wildcard))
}
