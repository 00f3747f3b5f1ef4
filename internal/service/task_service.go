package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/models"
	"github.com/mkovtun/study-tracker/internal/repository"
	"github.com/mkovtun/study-tracker/internal/service/integration"
	"github.com/mkovtun/study-tracker/internal/service/reporting"
	"github.com/mkovtun/study-tracker/pkg/validation"
)

const dueDateLayout = "2006-01-02"

type TaskService interface {
	Create(ctx context.Context, userID string, req *models.CreateTaskRequest) (*models.Task, error)
	GetByID(ctx context.Context, actorID string, actorRole models.Role, taskID string) (*models.Task, error)
	List(ctx context.Context, userID string, completed *bool, page, limit int) ([]models.Task, int, error)
	Buckets(ctx context.Context, userID string, completedLimit int) (models.TaskBuckets, error)
	ListAll(ctx context.Context, search string, completed *bool, page, limit int) ([]models.TaskWithOwner, int, error)
	Update(ctx context.Context, actorID string, actorRole models.Role, taskID string, req *models.UpdateTaskRequest) (*models.Task, error)
	Toggle(ctx context.Context, actorID string, actorRole models.Role, taskID string) (*models.Task, error)
	Delete(ctx context.Context, actorID string, actorRole models.Role, taskID string) error
}

type taskService struct {
	taskRepo  repository.TaskRepository
	publisher integration.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewTaskService(taskRepo repository.TaskRepository, publisher integration.EventPublisher, logger zerolog.Logger) TaskService {
	return &taskService{
		taskRepo:  taskRepo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// parseDueDate validates the YYYY-MM-DD string and normalizes it to
// start-of-day UTC.
func (s *taskService) parseDueDate(raw string) (time.Time, error) {
	due, err := time.ParseInLocation(dueDateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, ErrBadDueDate
	}
	return due, nil
}

func (s *taskService) Create(ctx context.Context, userID string, req *models.CreateTaskRequest) (*models.Task, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	due, err := s.parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}
	if due.Before(reporting.StartOfDay(s.now())) {
		return nil, ErrPastDueDate
	}

	now := s.now().UTC()
	task := &models.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		DueDate:     due,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", userID).
		Time("due_date", task.DueDate).
		Msg("Task created")

	s.publish(ctx, models.EventTaskCreated, task)
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, actorID string, actorRole models.Role, taskID string) (*models.Task, error) {
	task, err := s.getOwned(ctx, actorID, actorRole, taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, userID string, completed *bool, page, limit int) ([]models.Task, int, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	tasks, total, err := s.taskRepo.GetByUserID(ctx, userID, completed, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

func (s *taskService) Buckets(ctx context.Context, userID string, completedLimit int) (models.TaskBuckets, error) {
	tasks, err := s.taskRepo.GetAllByUserID(ctx, userID)
	if err != nil {
		return models.TaskBuckets{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	buckets := reporting.BucketTasks(s.now(), tasks)
	return reporting.CapCompleted(buckets, completedLimit), nil
}

func (s *taskService) ListAll(ctx context.Context, search string, completed *bool, page, limit int) ([]models.TaskWithOwner, int, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	tasks, total, err := s.taskRepo.GetAllWithOwner(ctx, strings.TrimSpace(search), completed, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list all tasks: %w", err)
	}

	return tasks, total, nil
}

func (s *taskService) Update(ctx context.Context, actorID string, actorRole models.Role, taskID string, req *models.UpdateTaskRequest) (*models.Task, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	task, err := s.getOwned(ctx, actorID, actorRole, taskID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	due, err := s.parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}
	// Resubmitting the task's own date must stay legal for overdue tasks,
	// only moving the date into the past is rejected.
	if !due.Equal(reporting.StartOfDay(task.DueDate)) && due.Before(reporting.StartOfDay(s.now())) {
		return nil, ErrPastDueDate
	}

	task.Title = title
	task.Description = strings.TrimSpace(req.Description)
	task.DueDate = due
	task.UpdatedAt = s.now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.publish(ctx, models.EventTaskUpdated, task)
	return task, nil
}

func (s *taskService) Toggle(ctx context.Context, actorID string, actorRole models.Role, taskID string) (*models.Task, error) {
	task, err := s.getOwned(ctx, actorID, actorRole, taskID)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed
	if task.Completed {
		now := s.now().UTC()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.taskRepo.SetCompleted(ctx, task.ID, task.Completed, task.CompletedAt); err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Bool("completed", task.Completed).
		Msg("Task completion toggled")

	s.publish(ctx, models.EventTaskToggled, task)
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, actorID string, actorRole models.Role, taskID string) error {
	task, err := s.getOwned(ctx, actorID, actorRole, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.publish(ctx, models.EventTaskDeleted, &models.Task{ID: task.ID, UserID: task.UserID})
	return nil
}

// getOwned loads a task and enforces the ownership rule: students touch
// only their own tasks, admins touch any.
func (s *taskService) getOwned(ctx context.Context, actorID string, actorRole models.Role, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if task.UserID != actorID && actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return task, nil
}

func (s *taskService) publish(ctx context.Context, eventType string, task *models.Task) {
	if s.publisher == nil {
		return
	}

	event := &models.TaskEvent{
		Type:      eventType,
		TaskID:    task.ID,
		UserID:    task.UserID,
		Timestamp: s.now().Unix(),
	}
	if eventType != models.EventTaskDeleted {
		event.Task = task
	}

	if err := s.publisher.PublishTaskEvent(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("task_id", task.ID).
			Msg("Failed to publish task event")
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
