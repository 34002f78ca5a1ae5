package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusmate/internal/model"
)

const userColumns = `id, name, email, password_hash, provider, google_id, image,
		total_focus_time, completed_sessions, tasks_completed, current_streak,
		last_active, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	var passwordHash interface{}
	if user.PasswordHash != "" {
		passwordHash = user.PasswordHash
	}
	var googleID interface{}
	if user.GoogleID != nil {
		googleID = *user.GoogleID
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO users (id, name, email, password_hash, provider, google_id, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		passwordHash,
		user.Provider,
		googleID,
		user.Image,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.User, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = ?`, googleID)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile writes the editable profile fields and the Google link.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	var googleID interface{}
	if user.GoogleID != nil {
		googleID = *user.GoogleID
	}

	result, err := r.db.ExecContext(
		ctx,
		`UPDATE users
		 SET name = ?,
		     email = ?,
		     image = ?,
		     google_id = ?,
		     updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.Image,
		googleID,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user profile: %w", err)
	}
	return requireAffected(result, "update user profile")
}

func (r *UserRepository) UpdateStatsTx(ctx context.Context, tx *sql.Tx, user *model.User) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE users
		 SET total_focus_time = ?,
		     completed_sessions = ?,
		     tasks_completed = ?,
		     current_streak = ?,
		     last_active = ?,
		     updated_at = ?
		 WHERE id = ?`,
		user.TotalFocusTime,
		user.CompletedSessions,
		user.TasksCompleted,
		user.CurrentStreak,
		nullableTime(user.LastActive),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user stats: %w", err)
	}
	return requireAffected(result, "update user stats")
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var passwordHash sql.NullString
	var googleID sql.NullString
	var lastActive sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&passwordHash,
		&user.Provider,
		&googleID,
		&user.Image,
		&user.TotalFocusTime,
		&user.CompletedSessions,
		&user.TasksCompleted,
		&user.CurrentStreak,
		&lastActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.PasswordHash = passwordHash.String
	if googleID.Valid {
		value := googleID.String
		user.GoogleID = &value
	}

	user.LastActive, err = parseNullTime(lastActive)
	if err != nil {
		return nil, fmt.Errorf("parse user last_active: %w", err)
	}
	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	user.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse user updated_at: %w", err)
	}

	return &user, nil
}
