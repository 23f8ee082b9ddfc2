package gormdb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) port.UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, arg any) (domain.User, error) {
	var m userModel

	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}

	return m.toDomain(), nil
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m := fromUser(user)

	err := r.db.WithContext(ctx).Create(&m).Error

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.User{}, domain.ErrDuplicate
	}

	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	return m.toDomain(), nil
}

type TaskRepository struct{ db *gorm.DB }

func NewTaskRepository(db *gorm.DB) port.TaskRepository { return &TaskRepository{db: db} }

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (domain.Task, error) {
	return firstTask(r.db.WithContext(ctx), id)
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	var models []taskModel

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&models).Error

	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(models))

	for _, m := range models {
		tasks = append(tasks, m.toDomain())
	}

	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	m := fromTask(task)

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}

	return m.toDomain(), nil
}

// Update holds a row lock (SELECT ... FOR UPDATE) while fn runs.
func (r *TaskRepository) Update(ctx context.Context, id int64, fn func(task *domain.Task) error) (domain.Task, error) {
	var updated domain.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := firstTask(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)

		if err != nil {
			return err
		}

		before := task

		if err := fn(&task); err != nil {
			return err
		}

		updated = task

		if task == before {
			return nil
		}

		m := fromTask(task)

		err = tx.Model(&taskModel{ID: id}).Updates(map[string]any{
			"title":       m.Title,
			"description": m.Description,
			"due_date":    m.DueDate,
			"is_complete": m.IsComplete,
			"updated_at":  tx.NowFunc(),
		}).Error

		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		if err := tx.First(&m, id).Error; err != nil {
			return err
		}

		updated = m.toDomain()
		return nil
	})

	if err != nil {
		return domain.Task{}, err
	}

	return updated, nil
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&taskModel{}, id).Error
}

func firstTask(db *gorm.DB, id int64) (domain.Task, error) {
	var m taskModel

	err := db.First(&m, id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Task{}, domain.ErrNotFound
	}

	if err != nil {
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}

	return m.toDomain(), nil
}
