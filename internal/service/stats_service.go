package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	apperrors "focusmate/internal/errors"
	"focusmate/internal/model"
	"focusmate/internal/repository"
)

type StatsService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	teams    *repository.TeamRepository
	clock    clockwork.Clock
}

type RecordSessionInput struct {
	FocusMinutes   int
	TasksCompleted int
}

func NewStatsService(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	teams *repository.TeamRepository,
	clock clockwork.Clock,
) *StatsService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StatsService{
		users:    users,
		sessions: sessions,
		teams:    teams,
		clock:    clock,
	}
}

func (s *StatsService) Get(ctx context.Context, userID string) (*model.Stats, *apperrors.APIError) {
	user, err := s.users.GetByID(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get stats")
	}
	stats := user.Stats()
	return &stats, nil
}

// Record adds one completed focus session to the caller's counters, updates
// the daily streak and credits the caller's teams, all in one transaction.
func (s *StatsService) Record(ctx context.Context, userID string, input RecordSessionInput) (*model.Stats, *apperrors.APIError) {
	details := map[string]string{}
	if input.FocusMinutes < 0 {
		details["focusTime"] = "focusTime must not be negative"
	}
	if input.TasksCompleted < 0 {
		details["tasksCompleted"] = "tasksCompleted must not be negative"
	}
	if len(details) > 0 {
		return nil, apperrors.Validation(details)
	}

	now := s.clock.Now().UTC()
	tx, err := s.users.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	user, err := s.users.GetByIDTx(ctx, tx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get stats")
	}

	user.CurrentStreak = nextStreak(user.CurrentStreak, user.LastActive, now.Local())
	user.TotalFocusTime += input.FocusMinutes
	user.CompletedSessions++
	user.TasksCompleted += input.TasksCompleted
	user.LastActive = &now
	user.UpdatedAt = now

	if err := s.users.UpdateStatsTx(ctx, tx, user); err != nil {
		return nil, apperrors.Wrap(err, "failed to update stats")
	}

	session := model.FocusSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		FocusMinutes:   input.FocusMinutes,
		TasksCompleted: input.TasksCompleted,
		CompletedAt:    now,
	}
	if err := s.sessions.InsertTx(ctx, tx, &session); err != nil {
		return nil, apperrors.Wrap(err, "failed to record focus session")
	}

	if err := s.teams.AddMemberTotalsTx(ctx, tx, userID, input.FocusMinutes, input.TasksCompleted); err != nil {
		return nil, apperrors.Wrap(err, "failed to update team totals")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Wrap(commitErr, "failed to commit transaction")
	}

	stats := user.Stats()
	return &stats, nil
}

func (s *StatsService) History(ctx context.Context, userID string, limit int) ([]model.FocusSession, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.sessions.List(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get history")
	}
	return sessions, nil
}

// nextStreak grows the streak by one on the first session of each calendar
// day, judged in the time zone of now. Days without a session do not reset it.
func nextStreak(current int, lastActive *time.Time, now time.Time) int {
	if lastActive == nil {
		return 1
	}
	if sameDay(*lastActive, now) {
		return max(current, 1)
	}
	return max(current, 0) + 1
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
