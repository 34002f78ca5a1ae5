package model

import "time"

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Provider          string     `json:"provider"`
	GoogleID          *string    `json:"-"`
	Image             string     `json:"image"`
	TotalFocusTime    int        `json:"-"`
	CompletedSessions int        `json:"-"`
	TasksCompleted    int        `json:"-"`
	CurrentStreak     int        `json:"-"`
	LastActive        *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Stats is the aggregate counter view of a user.
type Stats struct {
	TotalFocusTime    int        `json:"totalFocusTime"`
	CompletedSessions int        `json:"completedSessions"`
	TasksCompleted    int        `json:"tasksCompleted"`
	CurrentStreak     int        `json:"currentStreak"`
	LastActive        *time.Time `json:"lastActive,omitempty"`
}

func (u *User) Stats() Stats {
	return Stats{
		TotalFocusTime:    u.TotalFocusTime,
		CompletedSessions: u.CompletedSessions,
		TasksCompleted:    u.TasksCompleted,
		CurrentStreak:     u.CurrentStreak,
		LastActive:        u.LastActive,
	}
}

type FocusSession struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	FocusMinutes   int       `json:"focusMinutes"`
	TasksCompleted int       `json:"tasksCompleted"`
	CompletedAt    time.Time `json:"completedAt"`
}
