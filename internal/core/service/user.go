package service

import (
	"context"
	"errors"
	"time"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
)

type UserService struct {
	repo        port.UserRepository
	credentials port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo, credentials: repo}
}

// WithCredentialStore sets where password hashes are read from when repo is
// a cache that does not keep them.
func (us *UserService) WithCredentialStore(store port.UserRepository) *UserService {
	us.credentials = store
	return us
}

func (us *UserService) Create(ctx context.Context, name, email, passwordHash string) (domain.User, error) {
	newUser := domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	user, err := us.repo.Create(ctx, newUser)

	if errors.Is(err, domain.ErrDuplicate) {
		return domain.User{}, domain.NewValidationError(MsgEmailTaken)
	}

	if err != nil {
		return domain.User{}, err
	}

	return user, nil
}

func (us *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return us.getByEmail(ctx, us.repo, email)
}

func (us *UserService) GetCredentials(ctx context.Context, email string) (domain.User, error) {
	return us.getByEmail(ctx, us.credentials, email)
}

func (us *UserService) getByEmail(ctx context.Context, repo port.UserRepository, email string) (domain.User, error) {
	user, err := repo.GetByEmail(ctx, email)

	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.NewNotFoundError("Cannot find user with email %s", email)
	}

	if err != nil {
		return domain.User{}, err
	}

	return user, nil
}
