package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"rusithink-backend/internal/domain"
)

// TaskRepository handles task storage in Postgres
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `task_id, owner_id, title, description, due_datetime, project_price, status, priority, created_at, updated_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	task := &domain.Task{}
	err := row.Scan(
		&task.TaskID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.DueDatetime,
		&task.ProjectPrice,
		&task.Status,
		&task.Priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return task, nil
}

// Create inserts a new task
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		task.TaskID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDatetime,
		task.ProjectPrice,
		task.Status,
		task.Priority,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task by id
func (r *TaskRepository) GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE task_id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, taskID))
}

// Update persists the mutable fields of a task
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, due_datetime = $4, project_price = $5,
		    status = $6, priority = $7, updated_at = $8
		WHERE task_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		task.TaskID,
		task.Title,
		task.Description,
		task.DueDatetime,
		task.ProjectPrice,
		task.Status,
		task.Priority,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task by id
func (r *TaskRepository) Delete(ctx context.Context, taskID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE task_id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ListByOwner retrieves all tasks owned by a user, newest first
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.queryTasks(ctx, query, ownerID)
}

// ListAll retrieves every task, newest first
func (r *TaskRepository) ListAll(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC`
	return r.queryTasks(ctx, query)
}

// Stats aggregates task counts and total project value, optionally scoped to one owner
func (r *TaskRepository) Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.TaskStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'overdue'),
			COALESCE(SUM(project_price), 0)
		FROM tasks
		WHERE $1::uuid IS NULL OR owner_id = $1
	`

	stats := &domain.TaskStats{}
	var totalValue decimal.Decimal
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(
		&stats.TotalTasks,
		&stats.PendingTasks,
		&stats.CompletedTasks,
		&stats.OverdueTasks,
		&totalValue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task stats: %w", err)
	}
	stats.TotalProjectValue = totalValue
	return stats, nil
}
