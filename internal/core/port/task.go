package port

import (
	"context"

	"todolist/internal/core/domain"
)

type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Task, error)
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	// Update loads the task, hands it to fn and persists the result, all in
	// one transaction. Returning an error from fn aborts without writing.
	Update(ctx context.Context, id int64, fn func(task *domain.Task) error) (domain.Task, error)
	DeleteByID(ctx context.Context, id int64) error
}

type TaskService interface {
	CreateTask(ctx context.Context, input domain.NewTask, owner domain.User) (domain.Task, error)
	GetTaskByID(ctx context.Context, id int64) (domain.Task, error)
	ListTasksForUser(ctx context.Context, userID int64) ([]domain.Task, error)
	UpdateTask(existing domain.Task, patch domain.TaskPatch) domain.Task
	UpdateTaskOwned(ctx context.Context, callerID, id int64, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}
