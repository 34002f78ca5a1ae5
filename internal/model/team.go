package model

import "time"

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Team struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Members        []TeamMember `json:"members"`
	TotalFocusTime int          `json:"totalFocusTime"`
	TasksCompleted int          `json:"tasksCompleted"`
	CreatedAt      time.Time    `json:"createdAt"`
}

type TeamMember struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

func IsValidRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}

// MemberRole returns the role of userID in the team, or "" when absent.
func (t *Team) MemberRole(userID string) string {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}
