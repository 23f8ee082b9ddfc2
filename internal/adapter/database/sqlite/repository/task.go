package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todolist/internal/adapter/database/sqlite"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	"todolist/pkg/tracing"
)

type TaskRepository struct {
	db *sqlite.DB
}

func NewTaskRepository(db *sqlite.DB) port.TaskRepository {
	return &TaskRepository{db: db}
}

func (tr *TaskRepository) GetByID(ctx context.Context, id int64) (domain.Task, error) {
	return getTask(ctx, tr.db.DB, tr.db.QueryBuilder, id)
}

func (tr *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	query, args, err := tr.db.QueryBuilder.Select(sqlite.TaskColumns...).
		From("tasks").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	defer rows.Close()

	tasks := []domain.Task{}

	for rows.Next() {
		task, err := sqlite.ScanTask(rows)

		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func (tr *TaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	err := tracing.DatabaseSpanWrapper(ctx, sqlite.System, "tasks", "insert", func(ctx context.Context) error {
		query, args, err := tr.db.QueryBuilder.Insert("tasks").
			Columns("user_id", "title", "description", "due_date", "is_complete", "created_at", "updated_at").
			Values(task.UserID, task.Title, task.Description, task.DueDate.String(), task.IsComplete, task.CreatedAt, task.UpdatedAt).
			ToSql()

		if err != nil {
			return err
		}

		result, err := tr.db.ExecContext(ctx, query, args...)

		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		task.ID, err = result.LastInsertId()
		return err
	})

	if err != nil {
		return domain.Task{}, err
	}

	return task, nil
}

// Update runs inside a transaction opened with BEGIN IMMEDIATE (see the DSN
// parameters), so a concurrent writer waits until this one commits.
func (tr *TaskRepository) Update(ctx context.Context, id int64, fn func(task *domain.Task) error) (domain.Task, error) {
	tx, err := tr.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.Task{}, fmt.Errorf("begin tx: %w", err)
	}

	defer tx.Rollback()

	task, err := getTask(ctx, tx, tr.db.QueryBuilder, id)

	if err != nil {
		return domain.Task{}, err
	}

	before := task

	if err := fn(&task); err != nil {
		return domain.Task{}, err
	}

	if task == before {
		return task, tx.Commit()
	}

	task.UpdatedAt = time.Now().UTC()

	query, args, err := tr.db.QueryBuilder.Update("tasks").
		Set("title", task.Title).
		Set("description", task.Description).
		Set("due_date", task.DueDate.String()).
		Set("is_complete", task.IsComplete).
		Set("updated_at", task.UpdatedAt).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Task{}, fmt.Errorf("commit: %w", err)
	}

	return task, nil
}

func (tr *TaskRepository) DeleteByID(ctx context.Context, id int64) error {
	query, args, err := tr.db.QueryBuilder.Delete("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	_, err = tr.db.ExecContext(ctx, query, args...)

	return err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q queryer, qb sq.StatementBuilderType, id int64) (domain.Task, error) {
	query, args, err := qb.Select(sqlite.TaskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := sqlite.ScanTask(q.QueryRowContext(ctx, query, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}

	return task, nil
}
