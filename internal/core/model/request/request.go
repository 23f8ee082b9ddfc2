package request

import (
	"todolist/internal/core/domain"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

// CreateTaskRequest carries an optional userId for older clients; when sent
// it has to match the caller.
type CreateTaskRequest struct {
	Title       string       `json:"title" validate:"notblank"`
	Description *string      `json:"description"`
	DueDate     *domain.Date `json:"dueDate" validate:"required"`
	UserID      *int64       `json:"userId"`
}

func (r CreateTaskRequest) ToNewTask() domain.NewTask {
	input := domain.NewTask{
		Title:       r.Title,
		Description: r.Description,
	}

	if r.DueDate != nil {
		input.DueDate = *r.DueDate
	}

	return input
}

type UpdateTaskRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	DueDate     *domain.Date `json:"dueDate"`
	IsComplete  *bool        `json:"isComplete"`
}

func (r UpdateTaskRequest) ToPatch() domain.TaskPatch {
	return domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		IsComplete:  r.IsComplete,
	}
}
