package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	"todolist/pkg/tracing"
)

const (
	MsgEmailTaken        = "Account with email already exists"
	MsgUnknownEmail      = "Account with this email doesn't exist"
	MsgIncorrectPassword = "Incorrect password"
)

type AuthService struct {
	users  port.UserService
	hasher port.PasswordHasher
	tokens port.TokenIssuer
	logger *otelzap.Logger
}

func NewAuthService(users port.UserService, hasher port.PasswordHasher, tokens port.TokenIssuer, logger *otelzap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates the account and returns it together with a fresh token.
func (as *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, string, error) {
	ctx, span := tracing.CreateChildSpan(ctx, "AuthService.Register")
	defer span.End()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	_, err := as.users.GetUserByEmail(ctx, email)

	if err == nil {
		return domain.User{}, "", domain.NewValidationError(MsgEmailTaken)
	}

	if !domain.IsKind(err, domain.KindNotFound) {
		tracing.AddSpanError(span, err)
		return domain.User{}, "", err
	}

	hash, err := as.hasher.Hash(password)

	if err != nil {
		tracing.AddSpanError(span, err)
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := as.users.Create(ctx, name, email, hash)

	if err != nil {
		tracing.AddSpanError(span, err)
		return domain.User{}, "", err
	}

	token, err := as.tokens.Issue(user)

	if err != nil {
		tracing.AddSpanError(span, err)
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	as.logger.Ctx(ctx).Info("user registered", zap.Int64("user_id", user.ID))

	return user, token, nil
}

func (as *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	ctx, span := tracing.CreateChildSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := as.users.GetCredentials(ctx, email)

	if domain.IsKind(err, domain.KindNotFound) {
		return domain.User{}, "", domain.NewValidationError(MsgUnknownEmail)
	}

	if err != nil {
		tracing.AddSpanError(span, err)
		return domain.User{}, "", err
	}

	if !as.hasher.Verify(password, user.PasswordHash) {
		as.logger.Ctx(ctx).Warn("login rejected", zap.Int64("user_id", user.ID))
		return domain.User{}, "", domain.NewAuthorizationError(MsgIncorrectPassword)
	}

	token, err := as.tokens.Issue(user)

	if err != nil {
		tracing.AddSpanError(span, err)
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	tracing.AddSpanEvent(span, "user.authenticated", attribute.Int64("user.id", user.ID))

	return user, token, nil
}
