package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	database "todolist/internal/adapter/database/postgres"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	"todolist/pkg/tracing"
)

var taskColumns = []string{"id", "user_id", "title", "description", "due_date", "is_complete", "created_at", "updated_at"}

type TaskRepository struct {
	db *database.DB
}

func NewTaskRepository(db *database.DB) port.TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		task    domain.Task
		dueDate time.Time
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&dueDate,
		&task.IsComplete,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	task.DueDate = domain.DateOf(dueDate)

	return task, err
}

func (tr *TaskRepository) GetByID(ctx context.Context, id int64) (domain.Task, error) {
	return tr.getOne(ctx, tr.db, id, "")
}

func (tr *TaskRepository) getOne(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id int64, suffix string) (domain.Task, error) {
	builder := tr.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id})

	if suffix != "" {
		builder = builder.Suffix(suffix)
	}

	query, args, err := builder.ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := scanTask(q.QueryRow(ctx, query, args...))

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}

	return task, nil
}

func (tr *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	ctx, span := tracing.CreateChildSpan(ctx, "db.tasks.ListByUser",
		attribute.String("db.system", database.System),
		attribute.Int64("user.id", userID),
	)
	defer span.End()

	query, args, err := tr.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := tr.db.Query(ctx, query, args...)

	if err != nil {
		tracing.AddSpanError(span, err)
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	defer rows.Close()

	tasks := []domain.Task{}

	for rows.Next() {
		task, err := scanTask(rows)

		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		tasks = append(tasks, task)
	}

	span.SetAttributes(attribute.Int("db.rows_returned", len(tasks)))

	return tasks, rows.Err()
}

func (tr *TaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	query, args, err := tr.db.QueryBuilder.Insert("tasks").
		Columns("user_id", "title", "description", "due_date", "is_complete", "created_at", "updated_at").
		Values(task.UserID, task.Title, task.Description, task.DueDate.Time(), task.IsComplete, task.CreatedAt, task.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	if err := tr.db.QueryRow(ctx, query, args...).Scan(&task.ID); err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}

// Update locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (tr *TaskRepository) Update(ctx context.Context, id int64, fn func(task *domain.Task) error) (domain.Task, error) {
	var updated domain.Task

	err := pgx.BeginFunc(ctx, tr.db.Pool, func(tx pgx.Tx) error {
		task, err := tr.getOne(ctx, tx, id, "FOR UPDATE")

		if err != nil {
			return err
		}

		before := task

		if err := fn(&task); err != nil {
			return err
		}

		if task == before {
			updated = task
			return nil
		}

		task.UpdatedAt = time.Now().UTC()

		query, args, err := tr.db.QueryBuilder.Update("tasks").
			Set("title", task.Title).
			Set("description", task.Description).
			Set("due_date", task.DueDate.Time()).
			Set("is_complete", task.IsComplete).
			Set("updated_at", task.UpdatedAt).
			Where(sq.Eq{"id": id}).
			ToSql()

		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		updated = task
		return nil
	})

	if err != nil {
		return domain.Task{}, err
	}

	return updated, nil
}

func (tr *TaskRepository) DeleteByID(ctx context.Context, id int64) error {
	query, args, err := tr.db.QueryBuilder.Delete("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	_, err = tr.db.Exec(ctx, query, args...)

	return err
}
