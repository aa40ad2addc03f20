package task

import (
	"context"

	domain "github.com/example/task-manager/domain/task"
	"github.com/go-monolith/mono"
)

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	result, err := m.service.List(ctx, req.Actor, req.Status)
	if err != nil {
		return ListTasksResponse{}, err
	}

	response := ListTasksResponse{
		Tasks:         make([]TaskResponse, 0, len(result.Tasks)),
		StatusSummary: result.Summary,
	}
	for _, t := range result.Tasks {
		response.Tasks = append(response.Tasks, toTaskResponse(t))
	}
	return response, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Get(ctx, req.Actor, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Create(ctx, req)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Update(ctx, req)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.Actor, req.TaskID); err != nil {
		return DeleteTaskResponse{Deleted: false}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

// updateTaskStatus handles the update-task-status service request.
func (m *TaskModule) updateTaskStatus(ctx context.Context, req UpdateStatusRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.UpdateStatus(ctx, req.Actor, req.TaskID, req.Status)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

// updateTaskChecklist handles the update-task-checklist service request.
func (m *TaskModule) updateTaskChecklist(ctx context.Context, req UpdateChecklistRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.UpdateChecklist(ctx, req.Actor, req.TaskID, req.TodoChecklist)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(t), nil
}

// globalDashboard handles the dashboard-global service request.
func (m *TaskModule) globalDashboard(ctx context.Context, req DashboardRequest, _ *mono.Msg) (domain.Dashboard, error) {
	dash, err := m.service.GlobalDashboard(ctx, req.Actor)
	if err != nil {
		return domain.Dashboard{}, err
	}
	return *dash, nil
}

// userDashboard handles the dashboard-user service request.
func (m *TaskModule) userDashboard(ctx context.Context, req DashboardRequest, _ *mono.Msg) (domain.Dashboard, error) {
	dash, err := m.service.UserDashboard(ctx, req.Actor)
	if err != nil {
		return domain.Dashboard{}, err
	}
	return *dash, nil
}

// assigneeSummary handles the assignee-summary service request.
func (m *TaskModule) assigneeSummary(ctx context.Context, req AssigneeSummaryRequest, _ *mono.Msg) (AssigneeSummaryResponse, error) {
	counts, err := m.service.AssigneeSummary(ctx, req.Actor)
	if err != nil {
		return AssigneeSummaryResponse{}, err
	}
	return AssigneeSummaryResponse{Counts: counts}, nil
}
