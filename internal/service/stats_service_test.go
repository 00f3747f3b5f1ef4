package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkovtun/study-tracker/internal/config"
	"github.com/mkovtun/study-tracker/internal/models"
)

func newTestStatsService(taskRepo *fakeTaskRepo, userRepo *fakeUserRepo) StatsService {
	cfg := config.NotificationsConfig{
		OverdueThreshold: 20,
		JoinWindow:       24 * time.Hour,
	}
	svc := NewStatsService(taskRepo, userRepo, cfg, zerolog.Nop()).(*statsService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func addTask(repo *fakeTaskRepo, id string, dueDate time.Time, completedAt *time.Time) {
	repo.tasks[id] = &models.Task{
		ID:          id,
		UserID:      "student-1",
		DueDate:     dueDate,
		Completed:   completedAt != nil,
		CompletedAt: completedAt,
	}
	repo.order = append(repo.order, id)
}

func TestStatsServiceOverview(t *testing.T) {
	taskRepo := newFakeTaskRepo()
	userRepo := newFakeUserRepo()

	userRepo.users["s1"] = &models.User{ID: "s1", Role: models.RoleStudent}
	userRepo.users["s2"] = &models.User{ID: "s2", Role: models.RoleStudent}
	userRepo.users["a1"] = &models.User{ID: "a1", Role: models.RoleAdmin}

	doneAt := fixedNow.Add(-time.Hour)
	addTask(taskRepo, "done", fixedNow.AddDate(0, 0, -3), &doneAt)
	addTask(taskRepo, "overdue", fixedNow.AddDate(0, 0, -1), nil)
	addTask(taskRepo, "upcoming", fixedNow.AddDate(0, 0, 3), nil)
	addTask(taskRepo, "upcoming-2", fixedNow.AddDate(0, 0, 5), nil)

	svc := newTestStatsService(taskRepo, userRepo)

	stats, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 1, stats.OverdueTasks)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 25, stats.CompletionRate)
}

func TestStatsServiceChartDefaultsToWeek(t *testing.T) {
	svc := newTestStatsService(newFakeTaskRepo(), newFakeUserRepo())

	series, err := svc.Chart(context.Background(), models.ChartRange("bogus"))
	require.NoError(t, err)

	assert.Equal(t, models.ChartRangeWeek, series.Range)
	assert.Len(t, series.Points, 7)
}

func TestStatsServiceChartMonth(t *testing.T) {
	taskRepo := newFakeTaskRepo()
	doneAt := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	addTask(taskRepo, "done", doneAt, &doneAt)

	svc := newTestStatsService(taskRepo, newFakeUserRepo())

	series, err := svc.Chart(context.Background(), models.ChartRangeMonth)
	require.NoError(t, err)

	assert.Equal(t, models.ChartRangeMonth, series.Range)
	assert.Len(t, series.Points, 31)
	assert.Equal(t, "2024-03-10", series.Points[9].Label)
	assert.Equal(t, 1, series.Points[9].Count)
}

func TestStatsServiceNotifications(t *testing.T) {
	taskRepo := newFakeTaskRepo()
	userRepo := newFakeUserRepo()

	userRepo.users["fresh"] = &models.User{
		ID:        "fresh",
		Name:      "Ann",
		Role:      models.RoleStudent,
		CreatedAt: fixedNow.Add(-2 * time.Hour),
	}
	userRepo.users["stale"] = &models.User{
		ID:        "stale",
		Name:      "Bob",
		Role:      models.RoleStudent,
		CreatedAt: fixedNow.Add(-48 * time.Hour),
	}

	// 21 overdue tasks crosses the warning threshold of 20.
	for i := 0; i < 21; i++ {
		addTask(taskRepo, string(rune('a'+i)), fixedNow.AddDate(0, 0, -2), nil)
	}

	svc := newTestStatsService(taskRepo, userRepo)

	notifications, err := svc.Notifications(context.Background())
	require.NoError(t, err)

	require.Len(t, notifications, 2)
	assert.Equal(t, models.NotificationWarning, notifications[0].Level)
	assert.Equal(t, "21 tasks are overdue across all students", notifications[0].Message)
	assert.Equal(t, models.NotificationInfo, notifications[1].Level)
	assert.Equal(t, "Ann joined Study Tracker", notifications[1].Message)
}
