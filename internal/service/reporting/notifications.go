package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/mkovtun/study-tracker/internal/models"
)

// BuildNotifications derives the admin notification feed: one info entry
// per recently joined student plus a single warning when the system-wide
// overdue count exceeds the threshold. Entries are sorted newest-first.
// The feed is recomputed on every request and never persisted.
func BuildNotifications(now time.Time, recentStudents []models.User, overdueCount, overdueThreshold int) []models.Notification {
	notifications := make([]models.Notification, 0, len(recentStudents)+1)

	for _, student := range recentStudents {
		notifications = append(notifications, models.Notification{
			Level:     models.NotificationInfo,
			Message:   fmt.Sprintf("%s joined Study Tracker", student.Name),
			Timestamp: student.CreatedAt,
		})
	}

	if overdueCount > overdueThreshold {
		notifications = append(notifications, models.Notification{
			Level:     models.NotificationWarning,
			Message:   fmt.Sprintf("%d tasks are overdue across all students", overdueCount),
			Timestamp: now,
		})
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].Timestamp.After(notifications[j].Timestamp)
	})

	return notifications
}
