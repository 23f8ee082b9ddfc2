package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"todolist/internal/adapter/cache/memory"
	"todolist/internal/adapter/database/sqlite/repository"
	"todolist/internal/core/domain"
	"todolist/internal/core/service"
	"todolist/internal/core/util"
	"todolist/pkg/auth"
	. "todolist/pkg/test"
)

type AuthServiceTestSuite struct {
	suite.Suite
	service *service.AuthService
	users   *service.UserService
	tokens  *auth.JWT
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.users = service.NewUserService(repository.NewUserRepository(InitTestDB()))
	s.tokens = auth.NewJWT("secret", "todolist", time.Hour)
	s.service = service.NewAuthService(s.users, util.NewBcryptHasher(bcrypt.MinCost), s.tokens, NopLogger())
}

func TestAuthServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)

	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) TestRegister_ReturnsUserAndToken() {
	user, token, err := s.service.Register(context.Background(), "test", "test@gmail.com", "pw")

	Expect(err).To(BeNil())
	Expect(user.ID).To(BeNumerically(">", 0))
	Expect(token).ToNot(BeEmpty())

	email, err := s.tokens.Parse(token)
	Expect(err).To(BeNil())
	Expect(email).To(Equal("test@gmail.com"))
}

func (s *AuthServiceTestSuite) TestRegister_StoresHashNotPassword() {
	user, _, err := s.service.Register(context.Background(), "test", "test@gmail.com", "pw")
	Expect(err).To(BeNil())

	stored, _ := s.users.GetUserByEmail(context.Background(), "test@gmail.com")

	assert.Equal(s.T(), user.ID, stored.ID)
	assert.NotEqual(s.T(), "pw", stored.PasswordHash)
	assert.NoError(s.T(), bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw")))
}

func (s *AuthServiceTestSuite) TestRegister_TrimsInput() {
	user, _, err := s.service.Register(context.Background(), "  test  ", " test@gmail.com ", " pw ")
	Expect(err).To(BeNil())
	Expect(user.Name).To(Equal("test"))
	Expect(user.Email).To(Equal("test@gmail.com"))

	_, _, err = s.service.Login(context.Background(), "test@gmail.com", "pw")
	Expect(err).To(BeNil())
}

func (s *AuthServiceTestSuite) TestRegister_SameEmailTwice() {
	ctx := context.Background()
	s.service.Register(ctx, "test", "test@gmail.com", "pw")

	_, token, err := s.service.Register(ctx, "again", "test@gmail.com", "other")

	Expect(token).To(BeEmpty())
	Expect(domain.KindOf(err)).To(Equal(domain.KindValidation))
	Expect(err.(*domain.Error).Message).To(Equal("Account with email already exists"))
}

func (s *AuthServiceTestSuite) TestLogin_Success() {
	ctx := context.Background()
	registered, _, _ := s.service.Register(ctx, "test", "test@gmail.com", "pw")

	user, token, err := s.service.Login(ctx, "test@gmail.com", "pw")

	Expect(err).To(BeNil())
	Expect(user.ID).To(Equal(registered.ID))
	Expect(token).ToNot(BeEmpty())
}

func (s *AuthServiceTestSuite) TestLogin_UnknownEmail() {
	_, _, err := s.service.Login(context.Background(), "nobody@gmail.com", "pw")

	Expect(domain.KindOf(err)).To(Equal(domain.KindValidation))
	Expect(err.(*domain.Error).Message).To(Equal("Account with this email doesn't exist"))
}

func (s *AuthServiceTestSuite) TestLogin_WrongPassword() {
	ctx := context.Background()
	s.service.Register(ctx, "test", "test@gmail.com", "pw")

	_, token, err := s.service.Login(ctx, "test@gmail.com", "wrong")

	Expect(token).To(BeEmpty())
	Expect(domain.KindOf(err)).To(Equal(domain.KindAuthorization))
	Expect(err.(*domain.Error).Message).To(Equal("Incorrect password"))
}

func (s *AuthServiceTestSuite) TestLogin_ThroughUserCache() {
	store := repository.NewUserRepository(InitTestDB())
	cached := service.NewCachedUserRepository(store, memory.New(time.Minute, time.Minute), time.Minute, NopLogger())
	users := service.NewUserService(cached).WithCredentialStore(store)
	svc := service.NewAuthService(users, util.NewBcryptHasher(bcrypt.MinCost), s.tokens, NopLogger())

	_, _, err := svc.Register(context.Background(), "test", "test@gmail.com", "pw")
	Expect(err).To(BeNil())

	warm, err := users.GetUserByEmail(context.Background(), "test@gmail.com")
	Expect(err).To(BeNil())
	Expect(warm.PasswordHash).To(BeEmpty())

	user, token, err := svc.Login(context.Background(), "test@gmail.com", "pw")
	Expect(err).To(BeNil())
	Expect(user.ID).To(Equal(warm.ID))
	Expect(token).ToNot(BeEmpty())

	_, _, err = svc.Login(context.Background(), "test@gmail.com", "wrong")
	Expect(domain.KindOf(err)).To(Equal(domain.KindAuthorization))
}
