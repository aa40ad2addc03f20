package task

import "time"

// StatusSummary is the status breakdown returned alongside a task listing.
type StatusSummary struct {
	All             int64 `json:"all"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

// Statistics holds the headline counts of a dashboard.
type Statistics struct {
	TotalTasks     int64 `json:"totalTasks"`
	PendingTasks   int64 `json:"pendingTasks"`
	CompletedTasks int64 `json:"completedTasks"`
	OverdueTasks   int64 `json:"overdueTasks"`
}

// Charts holds the distribution maps of a dashboard.
type Charts struct {
	TaskDistribution   map[string]int64 `json:"taskDistribution"`
	TaskPriorityLevels map[string]int64 `json:"taskPriorityLevels"`
}

// RecentTask is the summary projection of a task shown on dashboards.
type RecentTask struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    Status     `json:"status"`
	Priority  Priority   `json:"priority"`
	DueDate   *time.Time `json:"dueDate"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Dashboard is the aggregate view of a set of tasks.
type Dashboard struct {
	Statistics  Statistics   `json:"statistics"`
	Charts      Charts       `json:"charts"`
	RecentTasks []RecentTask `json:"recentTasks"`
}

// AssigneeCounts is the per-user task breakdown used by user listings and reports.
type AssigneeCounts struct {
	All        int64 `json:"all"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
}

// StatusDistribution returns a map with every canonical status key (whitespace
// stripped) plus "All", missing statuses counted as zero.
func StatusDistribution(counts map[Status]int64, total int64) map[string]int64 {
	dist := make(map[string]int64, len(Statuses)+1)
	for _, s := range Statuses {
		dist[s.Key()] = counts[s]
	}
	dist["All"] = total
	return dist
}

// PriorityDistribution returns a map with every canonical priority key, missing
// priorities counted as zero.
func PriorityDistribution(counts map[Priority]int64) map[string]int64 {
	dist := make(map[string]int64, len(Priorities))
	for _, p := range Priorities {
		dist[string(p)] = counts[p]
	}
	return dist
}

// ToRecent projects a task onto its dashboard summary.
func ToRecent(t *Task) RecentTask {
	return RecentTask{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
	}
}
