package service

import (
	"context"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	appctx "todolist/pkg/context"
)

const (
	MsgUnauthenticated = "Unauthenticated"
	MsgNotYourTask     = "Unauthorised - not your task"
	MsgUnauthorised    = "Unauthorised"
)

// AccessGuard resolves the caller from the identity the auth middleware put
// in the context and enforces task ownership.
type AccessGuard struct {
	users port.UserService
}

func NewAccessGuard(users port.UserService) *AccessGuard {
	return &AccessGuard{users}
}

func (g *AccessGuard) CurrentUser(ctx context.Context) (domain.User, bool, error) {
	email, ok := appctx.EmailFromContext(ctx)

	if !ok {
		return domain.User{}, false, domain.NewAuthenticationError(MsgUnauthenticated)
	}

	user, err := g.users.GetUserByEmail(ctx, email)

	if domain.IsKind(err, domain.KindNotFound) {
		return domain.User{}, false, nil
	}

	if err != nil {
		return domain.User{}, false, err
	}

	return user, true, nil
}

func (g *AccessGuard) CurrentUserID(ctx context.Context) (int64, error) {
	user, ok, err := g.CurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	if !ok {
		return 0, domain.NewAuthenticationError(MsgUnauthenticated)
	}

	return user.ID, nil
}

func (g *AccessGuard) RequireOwnership(task domain.Task, callerID int64) error {
	if !task.BelongsToUser(callerID) {
		return domain.NewAuthorizationError(MsgNotYourTask)
	}

	return nil
}

// RequireSelf rejects listing another user's tasks.
func (g *AccessGuard) RequireSelf(pathUserID, callerID int64) error {
	if pathUserID != callerID {
		return domain.NewAuthorizationError(MsgUnauthorised)
	}

	return nil
}
