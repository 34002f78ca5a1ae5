package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusmate/internal/model"
)

type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts the team and its owner membership atomically.
func (r *TeamRepository) Create(ctx context.Context, team *model.Team, owner model.TeamMember) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO teams (id, name, description, total_focus_time, tasks_completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		team.ID,
		team.Name,
		team.Description,
		team.TotalFocusTime,
		team.TasksCompleted,
		formatTime(team.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}

	if err = insertMember(ctx, tx, team.ID, owner); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit team: %w", err)
	}
	return nil
}

// ListForUser returns the teams userID belongs to, with members loaded.
func (r *TeamRepository) ListForUser(ctx context.Context, userID string) ([]model.Team, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT t.id, t.name, t.description, t.total_focus_time, t.tasks_completed, t.created_at
		 FROM teams t
		 JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = ?
		 ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	teams := make([]model.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		teams = append(teams, *team)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	rows.Close()

	for i := range teams {
		members, err := r.listMembers(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].Members = members
	}
	return teams, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*model.Team, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, name, description, total_focus_time, tasks_completed, created_at FROM teams WHERE id = ?`,
		id,
	)
	team, err := scanTeam(row)
	if err != nil {
		return nil, err
	}

	team.Members, err = r.listMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *TeamRepository) Update(ctx context.Context, team *model.Team) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE teams SET name = ?, description = ? WHERE id = ?`,
		team.Name,
		team.Description,
		team.ID,
	)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return requireAffected(result, "update team")
}

func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return requireAffected(result, "delete team")
}

func (r *TeamRepository) AddMember(ctx context.Context, teamID string, member model.TeamMember) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		teamID,
		member.UserID,
		member.Role,
		formatTime(member.JoinedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`,
		teamID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	return requireAffected(result, "remove team member")
}

func (r *TeamRepository) listMembers(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT m.user_id, u.name, u.email, m.role, m.joined_at
		 FROM team_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.team_id = ?
		 ORDER BY m.joined_at ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	members := make([]model.TeamMember, 0)
	for rows.Next() {
		var member model.TeamMember
		var joinedAt string
		if err := rows.Scan(&member.UserID, &member.Name, &member.Email, &member.Role, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		if member.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, fmt.Errorf("parse team member joined_at: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return members, nil
}

func insertMember(ctx context.Context, tx *sql.Tx, teamID string, member model.TeamMember) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		teamID,
		member.UserID,
		member.Role,
		formatTime(member.JoinedAt),
	)
	if err != nil {
		return fmt.Errorf("insert team member: %w", err)
	}
	return nil
}

func scanTeam(s scanner) (*model.Team, error) {
	var team model.Team
	var createdAt string
	err := s.Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.TotalFocusTime,
		&team.TasksCompleted,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan team: %w", err)
	}
	if team.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse team created_at: %w", err)
	}
	return &team, nil
}

// AddMemberTotalsTx credits focus minutes and completed tasks to every team userID belongs to.
func (r *TeamRepository) AddMemberTotalsTx(ctx context.Context, tx *sql.Tx, userID string, focusMinutes, tasksCompleted int) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE teams
		 SET total_focus_time = total_focus_time + ?,
		     tasks_completed = tasks_completed + ?
		 WHERE id IN (SELECT team_id FROM team_members WHERE user_id = ?)`,
		focusMinutes,
		tasksCompleted,
		userID,
	)
	if err != nil {
		return fmt.Errorf("add team totals: %w", err)
	}
	return nil
}
