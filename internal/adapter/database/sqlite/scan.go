package sqlite

import (
	"todolist/internal/core/domain"
)

var (
	UserColumns = []string{"id", "name", "email", "password_hash", "created_at"}
	TaskColumns = []string{"id", "user_id", "title", "description", "due_date", "is_complete", "created_at", "updated_at"}
)

// Row is satisfied by *sql.Row and *sql.Rows.
type Row interface {
	Scan(dest ...any) error
}

func ScanUser(row Row) (domain.User, error) {
	var user domain.User

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)

	return user, err
}

func ScanTask(row Row) (domain.Task, error) {
	var task domain.Task

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.IsComplete,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	return task, err
}
