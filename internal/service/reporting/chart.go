package reporting

import (
	"time"

	"github.com/mkovtun/study-tracker/internal/models"
)

const chartLabelFormat = "2006-01-02"

// minChartCeiling keeps near-empty charts from collapsing to a flat line.
const minChartCeiling = 5

// WeeklySeries builds the completions chart for the trailing 7 days ending
// today. The series always has exactly 7 points.
func WeeklySeries(today time.Time, tasks []models.Task) models.ChartSeries {
	today = StartOfDay(today)
	start := today.AddDate(0, 0, -6)
	return buildSeries(models.ChartRangeWeek, start, 7, tasks)
}

// MonthlySeries builds the completions chart over every calendar day of
// the current month; the series length equals the number of days in that
// month regardless of how many tasks exist.
func MonthlySeries(today time.Time, tasks []models.Task) models.ChartSeries {
	today = StartOfDay(today)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	return buildSeries(models.ChartRangeMonth, first, days, tasks)
}

func buildSeries(chartRange models.ChartRange, start time.Time, days int, tasks []models.Task) models.ChartSeries {
	counts := make(map[string]int, days)
	for _, task := range tasks {
		if task.CompletedAt == nil {
			continue
		}
		counts[task.CompletedAt.UTC().Format(chartLabelFormat)]++
	}

	points := make([]models.DailyStat, 0, days)
	maxY := minChartCeiling
	for i := 0; i < days; i++ {
		label := start.AddDate(0, 0, i).Format(chartLabelFormat)
		count := counts[label]
		if count > maxY {
			maxY = count
		}
		points = append(points, models.DailyStat{Label: label, Count: count})
	}

	return models.ChartSeries{
		Range:  chartRange,
		Points: points,
		MaxY:   maxY,
	}
}
