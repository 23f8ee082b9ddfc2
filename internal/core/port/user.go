package port

import (
	"context"

	"todolist/internal/core/domain"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

type UserService interface {
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	// GetCredentials returns the user together with the stored password hash.
	GetCredentials(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (domain.User, error)
}
