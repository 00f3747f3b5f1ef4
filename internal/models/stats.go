package models

// OverviewStats are the system-wide aggregates shown on the admin dashboard.
type OverviewStats struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	OverdueTasks   int `json:"overdue_tasks"`
	TotalStudents  int `json:"total_students"`
	CompletionRate int `json:"completion_rate"` // integer percentage in [0,100]
}

// DailyStat is one point of the completions chart: the number of tasks
// whose completion timestamp falls on the labelled day. Derived, never
// persisted.
type DailyStat struct {
	Label string `json:"label"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type ChartRange string

const (
	ChartRangeWeek  ChartRange = "week"
	ChartRangeMonth ChartRange = "month"
)

type ChartSeries struct {
	Range  ChartRange  `json:"range"`
	Points []DailyStat `json:"points"`
	// MaxY is the suggested y-axis ceiling: max(observed max, 5) so a
	// near-empty chart does not collapse.
	MaxY int `json:"max_y"`
}
