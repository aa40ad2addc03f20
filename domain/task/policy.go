package task

import (
	"fmt"

	"github.com/example/task-manager/domain/user"
)

// Operation names an action an actor can attempt on tasks.
type Operation string

const (
	OpList             Operation = "list"
	OpGet              Operation = "get"
	OpCreate           Operation = "create"
	OpUpdate           Operation = "update"
	OpDelete           Operation = "delete"
	OpUpdateStatus     Operation = "update-status"
	OpUpdateChecklist  Operation = "update-checklist"
	OpDashboardGlobal  Operation = "dashboard-global"
	OpDashboardUser    Operation = "dashboard-user"
	OpExport           Operation = "export"
	OpAssigneeOverview Operation = "assignee-overview"
)

// Rule is the condition an actor must satisfy for an operation.
type Rule int

const (
	// RuleAuthenticated admits any authenticated actor.
	RuleAuthenticated Rule = iota
	// RuleAdmin admits admins only.
	RuleAdmin
	// RuleAdminOrAssignee admits admins and actors assigned to the task.
	RuleAdminOrAssignee
)

func (r Rule) String() string {
	switch r {
	case RuleAuthenticated:
		return "authenticated"
	case RuleAdmin:
		return "admin"
	case RuleAdminOrAssignee:
		return "admin or assignee"
	default:
		return "unknown"
	}
}

// Policy is the authorization table for task operations.
//
// OpUpdate is open to every authenticated actor while the status and checklist
// operations require assignment. OpGet does not scope by assignment; List does
// its scoping in the query instead of here.
var Policy = map[Operation]Rule{
	OpList:             RuleAuthenticated,
	OpGet:              RuleAuthenticated,
	OpCreate:           RuleAdmin,
	OpUpdate:           RuleAuthenticated,
	OpDelete:           RuleAdmin,
	OpUpdateStatus:     RuleAdminOrAssignee,
	OpUpdateChecklist:  RuleAdminOrAssignee,
	OpDashboardGlobal:  RuleAdmin,
	OpDashboardUser:    RuleAuthenticated,
	OpExport:           RuleAdmin,
	OpAssigneeOverview: RuleAdmin,
}

// Authorize decides whether actor may perform op. t is only consulted by
// RuleAdminOrAssignee and may be nil for the other rules.
func Authorize(actor user.Actor, op Operation, t *Task) error {
	rule, ok := Policy[op]
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", ErrForbidden, op)
	}
	if actor.ID == "" {
		return fmt.Errorf("%w: %s requires an authenticated actor", ErrForbidden, op)
	}

	switch rule {
	case RuleAuthenticated:
		return nil
	case RuleAdmin:
		if actor.IsAdmin() {
			return nil
		}
	case RuleAdminOrAssignee:
		if actor.IsAdmin() || (t != nil && t.IsAssignee(actor.ID)) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s requires %s", ErrForbidden, op, rule)
}
