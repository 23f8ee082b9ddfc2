package factory

import (
	"context"
	"time"

	fab "github.com/Goldziher/fabricator"
	"golang.org/x/crypto/bcrypt"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	"todolist/internal/core/util"
)

const DefaultPassword = "12345678"

func NewUser[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	hasPasswordHash := false

	for _, data := range customData {
		if _, exists := data["PasswordHash"]; exists {
			hasPasswordHash = true
			break
		}
	}

	if !hasPasswordHash {
		hash, _ := util.NewBcryptHasher(bcrypt.MinCost).Hash(DefaultPassword)

		customData = append(customData, map[string]any{
			"PasswordHash": hash,
		})
	}

	return instance.Build(customData...)
}

// CreateUser builds a user with the given overrides and stores it.
func CreateUser(ctx context.Context, repo port.UserRepository, customData ...map[string]any) (domain.User, error) {
	user := NewUser[domain.User](customData...)
	user.ID = 0
	user.CreatedAt = time.Now().UTC()

	return repo.Create(ctx, user)
}
