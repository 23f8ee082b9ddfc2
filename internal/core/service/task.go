package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	"todolist/pkg/tracing"
)

type TaskService struct {
	repo   port.TaskRepository
	guard  port.AccessGuard
	logger *otelzap.Logger
}

func NewTaskService(repo port.TaskRepository, guard port.AccessGuard, logger *otelzap.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		guard:  guard,
		logger: logger,
	}
}

func (ts *TaskService) CreateTask(ctx context.Context, input domain.NewTask, owner domain.User) (domain.Task, error) {
	ctx, span := tracing.CreateChildSpan(ctx, "TaskService.CreateTask")
	defer span.End()

	task, err := ts.repo.Create(ctx, input.Build(owner.ID))

	if err != nil {
		tracing.AddSpanError(span, err)
		ts.logger.Ctx(ctx).Error("create task failed", zap.Error(err), zap.Int64("user_id", owner.ID))
		return domain.Task{}, err
	}

	span.SetAttributes(attribute.Int64("task.id", task.ID))

	return task, nil
}

func (ts *TaskService) GetTaskByID(ctx context.Context, id int64) (domain.Task, error) {
	task, err := ts.repo.GetByID(ctx, id)

	if errors.Is(err, domain.ErrNotFound) {
		return domain.Task{}, notFound(id)
	}

	if err != nil {
		return domain.Task{}, err
	}

	return task, nil
}

// ListTasksForUser returns every task owned by userID in creation order.
func (ts *TaskService) ListTasksForUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	tasks, err := ts.repo.ListByUser(ctx, userID)

	if err != nil {
		return nil, err
	}

	if tasks == nil {
		tasks = []domain.Task{}
	}

	return tasks, nil
}

// UpdateTask merges patch into a copy of existing. It has no side effects.
func (ts *TaskService) UpdateTask(existing domain.Task, patch domain.TaskPatch) domain.Task {
	updated := existing
	updated.Apply(patch)
	return updated
}

// UpdateTaskOwned loads, checks ownership, merges and saves the task in one
// store transaction.
func (ts *TaskService) UpdateTaskOwned(ctx context.Context, callerID, id int64, patch domain.TaskPatch) (domain.Task, error) {
	ctx, span := tracing.CreateChildSpan(ctx, "TaskService.UpdateTaskOwned")
	defer span.End()

	task, err := ts.repo.Update(ctx, id, func(task *domain.Task) error {
		if err := ts.guard.RequireOwnership(*task, callerID); err != nil {
			return err
		}

		*task = ts.UpdateTask(*task, patch)
		return nil
	})

	if errors.Is(err, domain.ErrNotFound) {
		return domain.Task{}, notFound(id)
	}

	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			tracing.AddSpanError(span, err)
		}

		return domain.Task{}, err
	}

	return task, nil
}

func (ts *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := ts.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	return nil
}

func notFound(id int64) error {
	return domain.NewNotFoundError("Cannot find task with ID %d", id)
}
