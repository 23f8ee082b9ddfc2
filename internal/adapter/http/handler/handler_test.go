package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"todolist/internal/adapter/database/sqlite"
	"todolist/internal/adapter/database/sqlite/repository"
	"todolist/internal/adapter/http/handler"
	"todolist/internal/adapter/http/routes"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	"todolist/internal/core/util"
	"todolist/pkg/auth"
	"todolist/pkg/config"
	. "todolist/pkg/test"
)

// APISuite drives the real router over a fresh in-memory database per test.
type APISuite struct {
	suite.Suite
	DB       *sqlite.DB
	UserRepo port.UserRepository
	TaskRepo port.TaskRepository
	Tokens   *auth.JWT
	Router   *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.App{Name: "todolist", Env: "test"},
		HTTP: config.HTTP{
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 16,
			MaxConcurrent:  16,
		},
	}
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.DB = InitTestDB()
	s.UserRepo = repository.NewUserRepository(s.DB)
	s.TaskRepo = repository.NewTaskRepository(s.DB)
	s.Tokens = auth.NewJWT("secret", "todolist", time.Hour)
	s.Router = s.router(testConfig())
}

func (s *APISuite) TearDownTest() {
	s.DB.Close()
}

func (s *APISuite) router(cfg *config.Config) *gin.Engine {
	logger := NopLogger()

	users := service.NewUserService(s.UserRepo)
	guard := service.NewAccessGuard(users)
	authSvc := service.NewAuthService(users, util.NewBcryptHasher(bcrypt.MinCost), s.Tokens, logger)
	taskSvc := service.NewTaskService(s.TaskRepo, guard, logger)

	return routes.SetupRouter(routes.HandlersConfig{
		AuthHandler: handler.NewAuthHandler(authSvc, nil),
		TaskHandler: handler.NewTaskHandler(taskSvc, guard, nil),
		Tokens:      s.Tokens,
	}, routes.Options{
		Config: cfg,
		Logger: logger,
	})
}

func (s *APISuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var payload *bytes.Reader

	switch b := body.(type) {
	case nil:
		payload = bytes.NewReader(nil)
	case string:
		payload = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		Expect(err).ToNot(HaveOccurred())
		payload = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	return rr
}

func (s *APISuite) register(name, email, password string) response.AuthResponse {
	rr := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "")

	Expect(rr.Code).To(Equal(http.StatusCreated), rr.Body.String())

	var data response.AuthResponse
	Expect(json.Unmarshal(rr.Body.Bytes(), &data)).To(Succeed())

	return data
}

func expectError(rr *httptest.ResponseRecorder, status int, message string) {
	Expect(rr.Code).To(Equal(status), rr.Body.String())

	var body response.ErrorResponse
	Expect(json.Unmarshal(rr.Body.Bytes(), &body)).To(Succeed())
	Expect(body).To(Equal(response.ErrorResponse{Status: status, Message: message}))
}

func ctx() context.Context {
	return context.Background()
}
