// Package reporting holds the pure derived-data computations: task
// bucketing, aggregate statistics, chart series and the transient
// notification feed. Nothing here touches storage.
package reporting

import (
	"sort"
	"time"

	"github.com/mkovtun/study-tracker/internal/models"
)

// StartOfDay truncates a timestamp to midnight UTC. Due dates are stored
// at this granularity.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BucketTasks partitions a task list into the four student-view buckets
// relative to today. Completed tasks land in Completed regardless of due
// date; the incomplete ones split by due date vs today. Source order is
// preserved within the incomplete buckets, Completed is sorted
// newest-first by creation time.
func BucketTasks(today time.Time, tasks []models.Task) models.TaskBuckets {
	today = StartOfDay(today)

	buckets := models.TaskBuckets{
		Overdue:   []models.Task{},
		Today:     []models.Task{},
		Upcoming:  []models.Task{},
		Completed: []models.Task{},
	}

	for _, task := range tasks {
		if task.Completed {
			buckets.Completed = append(buckets.Completed, task)
			continue
		}

		due := StartOfDay(task.DueDate)
		switch {
		case due.Before(today):
			buckets.Overdue = append(buckets.Overdue, task)
		case due.Equal(today):
			buckets.Today = append(buckets.Today, task)
		default:
			buckets.Upcoming = append(buckets.Upcoming, task)
		}
	}

	sort.SliceStable(buckets.Completed, func(i, j int) bool {
		return buckets.Completed[i].CreatedAt.After(buckets.Completed[j].CreatedAt)
	})

	return buckets
}

// CapCompleted limits the Completed bucket to its first n entries. A
// non-positive n leaves the bucket untouched.
func CapCompleted(buckets models.TaskBuckets, n int) models.TaskBuckets {
	if n > 0 && len(buckets.Completed) > n {
		buckets.Completed = buckets.Completed[:n]
	}
	return buckets
}
