package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusOverdue   TaskStatus = "overdue"
)

// ValidTaskStatus reports whether s is a known task status
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusOverdue:
		return true
	}
	return false
}

// TaskPriority is the urgency level of a task
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task represents a client project task
// Maps to the Postgres tasks table
type Task struct {
	TaskID       uuid.UUID        `json:"id" db:"task_id"`
	OwnerID      uuid.UUID        `json:"owner_id" db:"owner_id"`
	Title        string           `json:"title" db:"title"`
	Description  *string          `json:"description,omitempty" db:"description"`
	DueDatetime  time.Time        `json:"due_datetime" db:"due_datetime"`
	ProjectPrice *decimal.Decimal `json:"project_price,omitempty" db:"project_price"`
	Status       TaskStatus       `json:"status" db:"status"`
	Priority     TaskPriority     `json:"priority" db:"priority"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// TaskCreate represents data needed to create a task
type TaskCreate struct {
	Title        string           `json:"title" binding:"required"`
	Description  *string          `json:"description,omitempty"`
	DueDatetime  time.Time        `json:"due_datetime" binding:"required"`
	ProjectPrice *decimal.Decimal `json:"project_price,omitempty"`
	Priority     TaskPriority     `json:"priority" binding:"omitempty,oneof=low medium high"`
	OwnerID      string           `json:"owner_id" binding:"omitempty,uuid"` // admin only, defaults to caller
}

// TaskUpdate represents a partial task update
type TaskUpdate struct {
	Title        *string          `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
	DueDatetime  *time.Time       `json:"due_datetime,omitempty"`
	ProjectPrice *decimal.Decimal `json:"project_price,omitempty"`
	Status       *TaskStatus      `json:"status,omitempty" binding:"omitempty,oneof=pending completed overdue"`
	Priority     *TaskPriority    `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
}

// TaskStats is the task dashboard overview
type TaskStats struct {
	TotalTasks        int             `json:"total_tasks"`
	PendingTasks      int             `json:"pending_tasks"`
	CompletedTasks    int             `json:"completed_tasks"`
	OverdueTasks      int             `json:"overdue_tasks"`
	TotalProjectValue decimal.Decimal `json:"total_project_value"`
}
