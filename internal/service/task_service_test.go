package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkovtun/study-tracker/internal/models"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type fakeTaskRepo struct {
	tasks map[string]*models.Task
	order []string
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*models.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	copied := *task
	r.tasks[task.ID] = &copied
	r.order = append(r.order, task.ID)
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) GetByUserID(ctx context.Context, userID string, completed *bool, limit, offset int) ([]models.Task, int, error) {
	all, _ := r.GetAllByUserID(ctx, userID)

	filtered := make([]models.Task, 0, len(all))
	for _, task := range all {
		if completed != nil && task.Completed != *completed {
			continue
		}
		filtered = append(filtered, task)
	}

	total := len(filtered)
	if offset >= len(filtered) {
		return []models.Task{}, total, nil
	}
	filtered = filtered[offset:]
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, total, nil
}

func (r *fakeTaskRepo) GetAllByUserID(ctx context.Context, userID string) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(r.order))
	for _, id := range r.order {
		if task, ok := r.tasks[id]; ok && task.UserID == userID {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (r *fakeTaskRepo) GetAllWithOwner(ctx context.Context, search string, completed *bool, limit, offset int) ([]models.TaskWithOwner, int, error) {
	return []models.TaskWithOwner{}, 0, nil
}

func (r *fakeTaskRepo) GetCompletedBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	var tasks []models.Task
	for _, id := range r.order {
		task := r.tasks[id]
		if task.CompletedAt == nil {
			continue
		}
		at := task.CompletedAt.UTC()
		if !at.Before(from) && at.Before(to) {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (r *fakeTaskRepo) CountStats(ctx context.Context, today time.Time) (int, int, int, error) {
	var total, completed, overdue int
	for _, task := range r.tasks {
		total++
		if task.Completed {
			completed++
		} else if task.DueDate.Before(today) {
			overdue++
		}
	}
	return total, completed, overdue, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) SetCompleted(ctx context.Context, id string, completed bool, completedAt *time.Time) error {
	task, ok := r.tasks[id]
	if !ok {
		return nil
	}
	task.Completed = completed
	task.CompletedAt = completedAt
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	delete(r.tasks, id)
	return nil
}

type fakePublisher struct {
	events []*models.TaskEvent
}

func (p *fakePublisher) PublishTaskEvent(ctx context.Context, event *models.TaskEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func newTestTaskService(repo *fakeTaskRepo, publisher *fakePublisher) TaskService {
	svc := NewTaskService(repo, publisher, zerolog.Nop()).(*taskService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestTaskServiceCreate(t *testing.T) {
	repo := newFakeTaskRepo()
	publisher := &fakePublisher{}
	svc := newTestTaskService(repo, publisher)

	task, err := svc.Create(context.Background(), "student-1", &models.CreateTaskRequest{
		Title:       "  Read chapter 4  ",
		Description: "pages 80-120",
		DueDate:     "2024-03-20",
	})
	require.NoError(t, err)

	assert.Equal(t, "Read chapter 4", task.Title)
	assert.Equal(t, "student-1", task.UserID)
	assert.False(t, task.Completed)
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), task.DueDate)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventTaskCreated, publisher.events[0].Type)
	assert.Equal(t, task.ID, publisher.events[0].TaskID)
}

func TestTaskServiceCreateDueToday(t *testing.T) {
	svc := newTestTaskService(newFakeTaskRepo(), &fakePublisher{})

	task, err := svc.Create(context.Background(), "student-1", &models.CreateTaskRequest{
		Title:   "Due today",
		DueDate: "2024-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), task.DueDate)
}

func TestTaskServiceCreateRejectsBadInput(t *testing.T) {
	svc := newTestTaskService(newFakeTaskRepo(), &fakePublisher{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "student-1", &models.CreateTaskRequest{
		Title:   "   ",
		DueDate: "2024-03-20",
	})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = svc.Create(ctx, "student-1", &models.CreateTaskRequest{
		Title:   "Past due",
		DueDate: "2024-03-14",
	})
	assert.ErrorIs(t, err, ErrPastDueDate)

	_, err = svc.Create(ctx, "student-1", &models.CreateTaskRequest{
		Title:   "Garbage date",
		DueDate: "20/03/2024",
	})
	assert.ErrorIs(t, err, ErrBadDueDate)
}

func TestTaskServiceUpdateOverdueTaskKeepsOwnDueDate(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo, &fakePublisher{})
	ctx := context.Background()

	// Seed a task that has since gone overdue.
	repo.tasks["t1"] = &models.Task{
		ID:      "t1",
		UserID:  "student-1",
		Title:   "Old title",
		DueDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	repo.order = append(repo.order, "t1")

	// Editing the title while resubmitting the stored date must succeed.
	updated, err := svc.Update(ctx, "student-1", models.RoleStudent, "t1", &models.UpdateTaskRequest{
		Title:   "New title",
		DueDate: "2024-03-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), updated.DueDate)

	// Moving the date to a different day in the past is still rejected.
	_, err = svc.Update(ctx, "student-1", models.RoleStudent, "t1", &models.UpdateTaskRequest{
		Title:   "New title",
		DueDate: "2024-03-12",
	})
	assert.ErrorIs(t, err, ErrPastDueDate)

	// Rescheduling into the future works.
	rescheduled, err := svc.Update(ctx, "student-1", models.RoleStudent, "t1", &models.UpdateTaskRequest{
		Title:   "New title",
		DueDate: "2024-03-22",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC), rescheduled.DueDate)
}

func TestTaskServiceToggle(t *testing.T) {
	repo := newFakeTaskRepo()
	publisher := &fakePublisher{}
	svc := newTestTaskService(repo, publisher)
	ctx := context.Background()

	task, err := svc.Create(ctx, "student-1", &models.CreateTaskRequest{
		Title:   "Toggle me",
		DueDate: "2024-03-20",
	})
	require.NoError(t, err)

	toggled, err := svc.Toggle(ctx, "student-1", models.RoleStudent, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	require.NotNil(t, toggled.CompletedAt)
	assert.Equal(t, fixedNow, *toggled.CompletedAt)

	back, err := svc.Toggle(ctx, "student-1", models.RoleStudent, task.ID)
	require.NoError(t, err)
	assert.False(t, back.Completed)
	assert.Nil(t, back.CompletedAt)
}

func TestTaskServiceOwnership(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo, &fakePublisher{})
	ctx := context.Background()

	task, err := svc.Create(ctx, "student-1", &models.CreateTaskRequest{
		Title:   "Private task",
		DueDate: "2024-03-20",
	})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, "student-2", models.RoleStudent, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(ctx, "student-2", models.RoleStudent, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins can touch anyone's task.
	got, err := svc.GetByID(ctx, "admin-1", models.RoleAdmin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

func TestTaskServiceGetByIDNotFound(t *testing.T) {
	svc := newTestTaskService(newFakeTaskRepo(), &fakePublisher{})

	_, err := svc.GetByID(context.Background(), "student-1", models.RoleStudent, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskServiceBuckets(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo, &fakePublisher{})
	ctx := context.Background()

	yesterday := fixedNow.AddDate(0, 0, -1)
	repo.tasks["overdue"] = &models.Task{ID: "overdue", UserID: "student-1", DueDate: yesterday}
	repo.order = append(repo.order, "overdue")

	_, err := svc.Create(ctx, "student-1", &models.CreateTaskRequest{Title: "Today", DueDate: "2024-03-15"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "student-1", &models.CreateTaskRequest{Title: "Later", DueDate: "2024-04-01"})
	require.NoError(t, err)

	buckets, err := svc.Buckets(ctx, "student-1", 50)
	require.NoError(t, err)

	assert.Len(t, buckets.Overdue, 1)
	assert.Len(t, buckets.Today, 1)
	assert.Len(t, buckets.Upcoming, 1)
	assert.Empty(t, buckets.Completed)
}

func TestTaskServiceDeletePublishesWithoutPayload(t *testing.T) {
	repo := newFakeTaskRepo()
	publisher := &fakePublisher{}
	svc := newTestTaskService(repo, publisher)
	ctx := context.Background()

	task, err := svc.Create(ctx, "student-1", &models.CreateTaskRequest{
		Title:   "Remove me",
		DueDate: "2024-03-20",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "student-1", models.RoleStudent, task.ID))

	require.Len(t, publisher.events, 2)
	deleted := publisher.events[1]
	assert.Equal(t, models.EventTaskDeleted, deleted.Type)
	assert.Equal(t, task.ID, deleted.TaskID)
	assert.Nil(t, deleted.Task)
}
