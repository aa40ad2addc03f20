package task

import (
	"context"
	"log"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
)

const (
	recentTasksLimit = 10

	// DashboardKeyPattern matches every cached dashboard.
	DashboardKeyPattern = "dashboard:*"

	globalDashboardKey     = "dashboard:global"
	userDashboardKeyPrefix = "dashboard:user:"
)

// GlobalDashboard aggregates all tasks. Admin only.
func (s *Service) GlobalDashboard(ctx context.Context, actor user.Actor) (*domain.Dashboard, error) {
	if err := domain.Authorize(actor, domain.OpDashboardGlobal, nil); err != nil {
		return nil, err
	}
	return s.dashboard(ctx, globalDashboardKey, Filter{})
}

// UserDashboard aggregates the tasks assigned to actor.
func (s *Service) UserDashboard(ctx context.Context, actor user.Actor) (*domain.Dashboard, error) {
	if err := domain.Authorize(actor, domain.OpDashboardUser, nil); err != nil {
		return nil, err
	}
	return s.dashboard(ctx, userDashboardKeyPrefix+actor.ID, Filter{AssigneeID: actor.ID})
}

// dashboard serves a dashboard with the cache-aside pattern. Cache errors fall
// through to the store.
func (s *Service) dashboard(ctx context.Context, key string, f Filter) (*domain.Dashboard, error) {
	if s.cache != nil {
		var cached domain.Dashboard
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[task] Cache error for %s: %v", key, err)
		}
		if found {
			return &cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.computeDashboard(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	dash := val.(*domain.Dashboard)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dash); err != nil {
			log.Printf("[task] Warning: failed to cache %s: %v", key, err)
		}
	}
	return dash, nil
}

func (s *Service) computeDashboard(ctx context.Context, f Filter) (*domain.Dashboard, error) {
	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	now := s.now()
	overdueFilter := f
	overdueFilter.OverdueBefore = &now
	overdue, err := s.store.Count(ctx, overdueFilter)
	if err != nil {
		return nil, err
	}

	rawStatus, err := s.store.CountBy(ctx, f, "status")
	if err != nil {
		return nil, err
	}
	byStatus := make(map[domain.Status]int64, len(rawStatus))
	for value, n := range rawStatus {
		byStatus[domain.Status(value)] = n
	}

	rawPriority, err := s.store.CountBy(ctx, f, "priority")
	if err != nil {
		return nil, err
	}
	byPriority := make(map[domain.Priority]int64, len(rawPriority))
	for value, n := range rawPriority {
		byPriority[domain.Priority(value)] = n
	}

	recent, err := s.store.Recent(ctx, f, recentTasksLimit)
	if err != nil {
		return nil, err
	}
	recentTasks := make([]domain.RecentTask, 0, len(recent))
	for _, t := range recent {
		recentTasks = append(recentTasks, domain.ToRecent(t))
	}

	return &domain.Dashboard{
		Statistics: domain.Statistics{
			TotalTasks:     total,
			PendingTasks:   byStatus[domain.StatusPending],
			CompletedTasks: byStatus[domain.StatusCompleted],
			OverdueTasks:   overdue,
		},
		Charts: domain.Charts{
			TaskDistribution:   domain.StatusDistribution(byStatus, total),
			TaskPriorityLevels: domain.PriorityDistribution(byPriority),
		},
		RecentTasks: recentTasks,
	}, nil
}

// AssigneeSummary counts the tasks of every assignee by status. Admin only.
func (s *Service) AssigneeSummary(ctx context.Context, actor user.Actor) (map[string]domain.AssigneeCounts, error) {
	if err := domain.Authorize(actor, domain.OpAssigneeOverview, nil); err != nil {
		return nil, err
	}

	tasks, err := s.store.Find(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	summary := make(map[string]domain.AssigneeCounts)
	for _, t := range tasks {
		for _, id := range t.AssignedTo {
			counts := summary[id]
			counts.All++
			switch t.Status {
			case domain.StatusPending:
				counts.Pending++
			case domain.StatusInProgress:
				counts.InProgress++
			case domain.StatusCompleted:
				counts.Completed++
			}
			summary[id] = counts
		}
	}
	return summary, nil
}
