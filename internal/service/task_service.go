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

type TaskService struct {
	repo *repository.TaskRepository
}

func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     time.Time
}

// UpdateTaskInput is a partial patch; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tasks")
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*model.Task, *apperrors.APIError) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	status := defaultString(input.Status, model.TaskStatusOpen)
	priority := defaultString(input.Priority, model.TaskPriorityMedium)

	details := map[string]string{}
	if title == "" {
		details["title"] = "title is required"
	}
	if description == "" {
		details["description"] = "description is required"
	}
	if input.DueDate.IsZero() {
		details["dueDate"] = "dueDate is required"
	}
	if !model.IsValidTaskStatus(status) {
		details["status"] = "status must be one of open, in-progress, overdue, completed"
	}
	if !model.IsValidTaskPriority(priority) {
		details["priority"] = "priority must be one of low, medium, high"
	}
	if len(details) > 0 {
		return nil, apperrors.Validation(details)
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, apperrors.Wrap(err, "failed to create task")
	}
	return &task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*model.Task, *apperrors.APIError) {
	task, err := s.repo.GetForUser(ctx, taskID, userID)
	if err == repository.ErrNotFound {
		return nil, taskNotFound()
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get task")
	}

	details := map[string]string{}
	if input.Title != nil {
		if value := strings.TrimSpace(*input.Title); value != "" {
			task.Title = value
		} else {
			details["title"] = "title cannot be empty"
		}
	}
	if input.Description != nil {
		if value := strings.TrimSpace(*input.Description); value != "" {
			task.Description = value
		} else {
			details["description"] = "description cannot be empty"
		}
	}
	if input.Status != nil {
		if model.IsValidTaskStatus(*input.Status) {
			task.Status = *input.Status
		} else {
			details["status"] = "status must be one of open, in-progress, overdue, completed"
		}
	}
	if input.Priority != nil {
		if model.IsValidTaskPriority(*input.Priority) {
			task.Priority = *input.Priority
		} else {
			details["priority"] = "priority must be one of low, medium, high"
		}
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate.UTC()
	}
	if len(details) > 0 {
		return nil, apperrors.Validation(details)
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		if err == repository.ErrNotFound {
			return nil, taskNotFound()
		}
		return nil, apperrors.Wrap(err, "failed to update task")
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) *apperrors.APIError {
	if err := s.repo.Delete(ctx, taskID, userID); err != nil {
		if err == repository.ErrNotFound {
			return taskNotFound()
		}
		return apperrors.Wrap(err, "failed to delete task")
	}
	return nil
}

func taskNotFound() *apperrors.APIError {
	return apperrors.NotFound("task_not_found", "task not found")
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
