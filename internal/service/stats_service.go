package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/config"
	"github.com/mkovtun/study-tracker/internal/models"
	"github.com/mkovtun/study-tracker/internal/repository"
	"github.com/mkovtun/study-tracker/internal/service/reporting"
)

type StatsService interface {
	Overview(ctx context.Context) (*models.OverviewStats, error)
	Chart(ctx context.Context, chartRange models.ChartRange) (*models.ChartSeries, error)
	Notifications(ctx context.Context) ([]models.Notification, error)
}

type statsService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	cfg      config.NotificationsConfig
	logger   zerolog.Logger
	now      func() time.Time
}

func NewStatsService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, cfg config.NotificationsConfig, logger zerolog.Logger) StatsService {
	return &statsService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *statsService) Overview(ctx context.Context) (*models.OverviewStats, error) {
	today := reporting.StartOfDay(s.now())

	total, completed, overdue, err := s.taskRepo.CountStats(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to count task stats: %w", err)
	}

	students, err := s.userRepo.CountStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	return &models.OverviewStats{
		TotalTasks:     total,
		CompletedTasks: completed,
		OverdueTasks:   overdue,
		TotalStudents:  students,
		CompletionRate: reporting.CompletionRate(total, completed),
	}, nil
}

func (s *statsService) Chart(ctx context.Context, chartRange models.ChartRange) (*models.ChartSeries, error) {
	today := reporting.StartOfDay(s.now())

	var from time.Time
	switch chartRange {
	case models.ChartRangeMonth:
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		chartRange = models.ChartRangeWeek
		from = today.AddDate(0, 0, -6)
	}
	to := today.AddDate(0, 1, 0) // generous upper bound, the series ignores extras

	tasks, err := s.taskRepo.GetCompletedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed tasks: %w", err)
	}

	var series models.ChartSeries
	if chartRange == models.ChartRangeMonth {
		series = reporting.MonthlySeries(s.now(), tasks)
	} else {
		series = reporting.WeeklySeries(s.now(), tasks)
	}

	return &series, nil
}

func (s *statsService) Notifications(ctx context.Context) ([]models.Notification, error) {
	now := s.now().UTC()

	recent, err := s.userRepo.GetStudentsCreatedSince(ctx, now.Add(-s.cfg.JoinWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent students: %w", err)
	}

	today := reporting.StartOfDay(now)
	_, _, overdue, err := s.taskRepo.CountStats(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	return reporting.BuildNotifications(now, recent, overdue, s.cfg.OverdueThreshold), nil
}
