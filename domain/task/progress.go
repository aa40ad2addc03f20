package task

import "math"

// CompletedCount returns the number of completed checklist items.
func CompletedCount(items []ChecklistItem) int {
	n := 0
	for _, item := range items {
		if item.Completed {
			n++
		}
	}
	return n
}

// Progress returns round(100*completed/total), or 0 for an empty checklist.
func Progress(items []ChecklistItem) int {
	if len(items) == 0 {
		return 0
	}
	ratio := float64(CompletedCount(items)) / float64(len(items))
	return int(math.Round(100 * ratio))
}

// DeriveStatus maps checklist completion onto a status: all items done is Completed,
// some done is In Progress, none done (or no items) is Pending.
func DeriveStatus(items []ChecklistItem) Status {
	done := CompletedCount(items)
	switch {
	case len(items) > 0 && done == len(items):
		return StatusCompleted
	case done > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}
