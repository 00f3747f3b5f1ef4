package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkovtun/study-tracker/internal/models"
)

func completedOn(ts time.Time) models.Task {
	return models.Task{Completed: true, CompletedAt: &ts}
}

func TestWeeklySeriesAlwaysSevenPoints(t *testing.T) {
	today := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	series := WeeklySeries(today, nil)

	assert.Equal(t, models.ChartRangeWeek, series.Range)
	assert.Len(t, series.Points, 7)
	assert.Equal(t, "2024-03-09", series.Points[0].Label)
	assert.Equal(t, "2024-03-15", series.Points[6].Label)
}

func TestWeeklySeriesCountsByCompletionDay(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tasks := []models.Task{
		completedOn(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)),
		completedOn(time.Date(2024, 3, 14, 21, 0, 0, 0, time.UTC)),
		completedOn(time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)),
		// Outside the window, must be ignored.
		completedOn(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		// Incomplete tasks never count.
		{Completed: false},
	}

	series := WeeklySeries(today, tasks)

	assert.Equal(t, 2, series.Points[5].Count)
	assert.Equal(t, 1, series.Points[6].Count)
	assert.Equal(t, 0, series.Points[0].Count)
}

func TestMonthlySeriesLengthMatchesCalendar(t *testing.T) {
	cases := []struct {
		name  string
		today time.Time
		days  int
	}{
		{"march", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 31},
		{"april", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 30},
		{"leap february", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 29},
		{"plain february", time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), 28},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			series := MonthlySeries(tc.today, nil)
			assert.Equal(t, models.ChartRangeMonth, series.Range)
			assert.Len(t, series.Points, tc.days)
		})
	}
}

func TestChartMaxYHasFloor(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	empty := WeeklySeries(today, nil)
	assert.Equal(t, 5, empty.MaxY)

	tasks := make([]models.Task, 0, 8)
	for i := 0; i < 8; i++ {
		tasks = append(tasks, completedOn(time.Date(2024, 3, 15, i, 0, 0, 0, time.UTC)))
	}

	busy := WeeklySeries(today, tasks)
	assert.Equal(t, 8, busy.MaxY)
}
