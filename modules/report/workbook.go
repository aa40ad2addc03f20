package report

import (
	"fmt"
	"strings"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/task"
	"github.com/xuri/excelize/v2"
)

const (
	// ContentTypeXLSX is the media type of generated reports.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	TasksSheet = "Tasks Report"
	UsersSheet = "Users Report"

	TasksFilename = "tasks_report.xlsx"
	UsersFilename = "users_report.xlsx"
)

type column struct {
	header string
	width  float64
}

var taskColumns = []column{
	{"Task ID", 25},
	{"Title", 30},
	{"Description", 50},
	{"Priority", 15},
	{"Status", 20},
	{"Due Date", 20},
	{"Assigned To", 40},
}

var userColumns = []column{
	{"User Name", 30},
	{"Email", 40},
	{"Total Assigned Tasks", 20},
	{"Pending Tasks", 20},
	{"In-Progress Tasks", 20},
	{"Completed Tasks", 20},
}

// TasksWorkbook renders one row per task. Assignees are resolved through users;
// ids without a user are left out.
func TasksWorkbook(tasks []task.TaskResponse, users map[string]user.User) ([]byte, error) {
	rows := make([][]any, 0, len(tasks))
	for _, t := range tasks {
		dueDate := "N/A"
		if t.DueDate != nil {
			dueDate = t.DueDate.UTC().Format("2006-01-02")
		}
		rows = append(rows, []any{
			t.ID,
			t.Title,
			t.Description,
			t.Priority,
			t.Status,
			dueDate,
			assigneeLabel(t.AssignedTo, users),
		})
	}
	return render(TasksSheet, taskColumns, rows)
}

// UsersWorkbook renders one row per user with their assignment counts.
func UsersWorkbook(users []user.User, counts map[string]domain.AssigneeCounts) ([]byte, error) {
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		c := counts[u.ID]
		rows = append(rows, []any{u.Name, u.Email, c.All, c.Pending, c.InProgress, c.Completed})
	}
	return render(UsersSheet, userColumns, rows)
}

func assigneeLabel(ids []string, users map[string]user.User) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			names = append(names, fmt.Sprintf("%s (%s)", u.Name, u.Email))
		}
	}
	if len(names) == 0 {
		return "Unassigned"
	}
	return strings.Join(names, ", ")
}

// render writes a single-sheet workbook with a bold header row.
func render(sheet string, columns []column, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
