package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focusmate/internal/errors"
	"focusmate/internal/model"
	"focusmate/internal/repository"
)

type TeamService struct {
	teams *repository.TeamRepository
	users *repository.UserRepository
}

func NewTeamService(teams *repository.TeamRepository, users *repository.UserRepository) *TeamService {
	return &TeamService{teams: teams, users: users}
}

type UpdateTeamInput struct {
	Name        *string
	Description *string
}

func (s *TeamService) Create(ctx context.Context, ownerID, name, description string) (*model.Team, *apperrors.APIError) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation(map[string]string{"name": "name is required"})
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	now := time.Now().UTC()
	team := model.Team{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	}
	member := model.TeamMember{
		UserID:   owner.ID,
		Name:     owner.Name,
		Email:    owner.Email,
		Role:     model.RoleOwner,
		JoinedAt: now,
	}
	if err := s.teams.Create(ctx, &team, member); err != nil {
		return nil, apperrors.Wrap(err, "failed to create team")
	}
	team.Members = []model.TeamMember{member}
	return &team, nil
}

func (s *TeamService) List(ctx context.Context, userID string) ([]model.Team, *apperrors.APIError) {
	teams, err := s.teams.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list teams")
	}
	return teams, nil
}

// Get returns the team when the caller is one of its members.
func (s *TeamService) Get(ctx context.Context, userID, teamID string) (*model.Team, *apperrors.APIError) {
	team, apiErr := s.load(ctx, teamID)
	if apiErr != nil {
		return nil, apiErr
	}
	if team.MemberRole(userID) == "" {
		return nil, apperrors.Forbidden("not a member of this team")
	}
	return team, nil
}

func (s *TeamService) Update(ctx context.Context, userID, teamID string, input UpdateTeamInput) (*model.Team, *apperrors.APIError) {
	team, apiErr := s.load(ctx, teamID)
	if apiErr != nil {
		return nil, apiErr
	}
	if !canManage(team.MemberRole(userID)) {
		return nil, apperrors.Forbidden("only team owners and admins can update the team")
	}

	if value := trimmed(input.Name); value != "" {
		team.Name = value
	}
	if input.Description != nil {
		team.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.teams.Update(ctx, team); err != nil {
		if err == repository.ErrNotFound {
			return nil, teamNotFound()
		}
		return nil, apperrors.Wrap(err, "failed to update team")
	}
	return team, nil
}

func (s *TeamService) Delete(ctx context.Context, userID, teamID string) *apperrors.APIError {
	team, apiErr := s.load(ctx, teamID)
	if apiErr != nil {
		return apiErr
	}
	if team.MemberRole(userID) != model.RoleOwner {
		return apperrors.Forbidden("only the team owner can delete the team")
	}
	if err := s.teams.Delete(ctx, teamID); err != nil {
		if err == repository.ErrNotFound {
			return teamNotFound()
		}
		return apperrors.Wrap(err, "failed to delete team")
	}
	return nil
}

func (s *TeamService) AddMember(ctx context.Context, userID, teamID, memberID, role string) (*model.Team, *apperrors.APIError) {
	role = defaultString(role, model.RoleMember)
	if !model.IsValidRole(role) || role == model.RoleOwner {
		return nil, apperrors.Validation(map[string]string{"role": "role must be admin or member"})
	}
	if strings.TrimSpace(memberID) == "" {
		return nil, apperrors.Validation(map[string]string{"userId": "userId is required"})
	}

	team, apiErr := s.load(ctx, teamID)
	if apiErr != nil {
		return nil, apiErr
	}
	if !canManage(team.MemberRole(userID)) {
		return nil, apperrors.Forbidden("only team owners and admins can add members")
	}
	if team.MemberRole(memberID) != "" {
		return nil, apperrors.BadRequest("already_member", "user is already a member of this team")
	}

	user, err := s.users.GetByID(ctx, memberID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	member := model.TeamMember{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.teams.AddMember(ctx, teamID, member); err != nil {
		if err == repository.ErrDuplicate {
			return nil, apperrors.BadRequest("already_member", "user is already a member of this team")
		}
		return nil, apperrors.Wrap(err, "failed to add team member")
	}
	team.Members = append(team.Members, member)
	return team, nil
}

// RemoveMember lets owners and admins remove anyone but the owner; any
// member may remove themself unless they own the team.
func (s *TeamService) RemoveMember(ctx context.Context, userID, teamID, memberID string) (*model.Team, *apperrors.APIError) {
	team, apiErr := s.load(ctx, teamID)
	if apiErr != nil {
		return nil, apiErr
	}

	callerRole := team.MemberRole(userID)
	if callerRole == "" {
		return nil, apperrors.Forbidden("not a member of this team")
	}
	if memberID != userID && !canManage(callerRole) {
		return nil, apperrors.Forbidden("only team owners and admins can remove members")
	}
	targetRole := team.MemberRole(memberID)
	if targetRole == "" {
		return nil, apperrors.NotFound("member_not_found", "user is not a member of this team")
	}
	if targetRole == model.RoleOwner {
		return nil, apperrors.BadRequest("owner_required", "the team owner cannot be removed")
	}

	if err := s.teams.RemoveMember(ctx, teamID, memberID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("member_not_found", "user is not a member of this team")
		}
		return nil, apperrors.Wrap(err, "failed to remove team member")
	}

	remaining := make([]model.TeamMember, 0, len(team.Members))
	for _, m := range team.Members {
		if m.UserID != memberID {
			remaining = append(remaining, m)
		}
	}
	team.Members = remaining
	return team, nil
}

func (s *TeamService) load(ctx context.Context, teamID string) (*model.Team, *apperrors.APIError) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err == repository.ErrNotFound {
		return nil, teamNotFound()
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get team")
	}
	return team, nil
}

func canManage(role string) bool {
	return role == model.RoleOwner || role == model.RoleAdmin
}

func teamNotFound() *apperrors.APIError {
	return apperrors.NotFound("team_not_found", "team not found")
}
