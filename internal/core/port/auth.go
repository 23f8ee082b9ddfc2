package port

import (
	"context"

	"todolist/internal/core/domain"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs time bound tokens carrying the user's email.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
	Parse(token string) (email string, err error)
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (domain.User, string, error)
	Login(ctx context.Context, email, password string) (domain.User, string, error)
}

type AccessGuard interface {
	CurrentUserID(ctx context.Context) (int64, error)
	CurrentUser(ctx context.Context) (domain.User, bool, error)
	RequireOwnership(task domain.Task, callerID int64) error
	RequireSelf(pathUserID, callerID int64) error
}
