package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusmate/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *model.FocusSession) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO focus_sessions (id, user_id, focus_minutes, tasks_completed, completed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.FocusMinutes,
		session.TasksCompleted,
		formatTime(session.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert focus session: %w", err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context, userID string, limit int) ([]model.FocusSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, focus_minutes, tasks_completed, completed_at
		 FROM focus_sessions
		 WHERE user_id = ?
		 ORDER BY completed_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list focus sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.FocusSession, 0, limit)
	for rows.Next() {
		session, scanErr := scanFocusSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate focus sessions: %w", err)
	}

	return sessions, nil
}

func scanFocusSession(s scanner) (*model.FocusSession, error) {
	session := model.FocusSession{}
	var completedAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&session.FocusMinutes,
		&session.TasksCompleted,
		&completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan focus session: %w", err)
	}

	session.CompletedAt, err = parseTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse focus session completed_at: %w", err)
	}
	return &session, nil
}
