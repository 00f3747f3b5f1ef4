package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/repository"
	"github.com/mkovtun/study-tracker/internal/service/reporting"
)

// StudentsCSVFilename is the download name of the admin student report.
const StudentsCSVFilename = "study_tracker_students.csv"

const joinDateLayout = "2006-01-02"

type ReportService interface {
	WriteStudentsCSV(ctx context.Context, w io.Writer) error
}

type reportService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
	now      func() time.Time
}

func NewReportService(userRepo repository.UserRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// WriteStudentsCSV streams one row per student: name, email, role, join
// date, total and completed task counts. encoding/csv handles quoting, so
// names containing commas or quotes survive the round trip.
func (s *reportService) WriteStudentsCSV(ctx context.Context, w io.Writer) error {
	today := reporting.StartOfDay(s.now())

	students, err := s.userRepo.GetAllStudentsWithStats(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to load students: %w", err)
	}

	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"name", "email", "role", "joined", "total_tasks", "completed_tasks"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, student := range students {
		record := []string{
			student.Name,
			student.Email,
			string(student.Role),
			student.CreatedAt.UTC().Format(joinDateLayout),
			strconv.Itoa(student.TotalTasks),
			strconv.Itoa(student.CompletedTasks),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	s.logger.Info().Int("students", len(students)).Msg("Student CSV report generated")
	return nil
}
