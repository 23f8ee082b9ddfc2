package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"todolist/internal/adapter/database/postgres"
	"todolist/internal/adapter/database/postgres/repository"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
)

type PostgresRepositoryTestSuite struct {
	suite.Suite
	container testcontainers.Container
	db        *postgres.DB
	users     port.UserRepository
	tasks     port.TaskRepository
}

func TestPostgresRepositoryTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(PostgresRepositoryTestSuite))
}

func (s *PostgresRepositoryTestSuite) SetupSuite() {
	ctx := context.Background()
	url := os.Getenv("TEST_DATABASE_URL")

	if url == "" {
		if testing.Short() {
			s.T().Skip("TEST_DATABASE_URL not set")
		}

		testcontainers.SkipIfProviderIsNotHealthy(s.T())
		url = s.startContainer(ctx)
	}

	db, err := postgres.NewDB(ctx, postgres.Options{URL: url})
	require.NoError(s.T(), err)

	s.db = db
	s.users = repository.NewUserRepository(db)
	s.tasks = repository.NewTaskRepository(db)
}

func (s *PostgresRepositoryTestSuite) startContainer(ctx context.Context) string {
	req := testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "testdb",
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
	}

	container, err := testcontainers.GenericContainer(ctx, req)
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(s.T(), err)

	return fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
}

func (s *PostgresRepositoryTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}

	if s.container != nil {
		s.container.Terminate(context.Background())
	}
}

func (s *PostgresRepositoryTestSuite) SetupTest() {
	_, err := s.db.Exec(context.Background(), "TRUNCATE tasks, users RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err)
}

func (s *PostgresRepositoryTestSuite) createUser(email string) domain.User {
	user, err := s.users.Create(context.Background(), domain.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(s.T(), err)

	return user
}

func (s *PostgresRepositoryTestSuite) createTask(owner int64, title string) domain.Task {
	task, err := s.tasks.Create(context.Background(), domain.Task{
		UserID:  owner,
		Title:   title,
		DueDate: domain.MustParseDate("2024-05-01"),
	})
	require.NoError(s.T(), err)

	return task
}

func (s *PostgresRepositoryTestSuite) TestUsers_CreateAndLookup() {
	ctx := context.Background()
	created := s.createUser("test@example.com")

	byEmail, err := s.users.GetByEmail(ctx, "test@example.com")
	Expect(err).To(BeNil())
	Expect(byEmail.ID).To(Equal(created.ID))

	_, err = s.users.GetByEmail(ctx, "missing@example.com")
	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *PostgresRepositoryTestSuite) TestUsers_DuplicateEmail() {
	s.createUser("test@example.com")

	_, err := s.users.Create(context.Background(), domain.User{
		Name:         "Again",
		Email:        "test@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	})

	Expect(err).To(MatchError(domain.ErrDuplicate))
}

func (s *PostgresRepositoryTestSuite) TestTasks_CRUD() {
	ctx := context.Background()
	owner := s.createUser("owner@example.com")
	other := s.createUser("other@example.com")

	first := s.createTask(owner.ID, "first")
	s.createTask(other.ID, "not mine")
	second := s.createTask(owner.ID, "second")

	tasks, err := s.tasks.ListByUser(ctx, owner.ID)
	Expect(err).To(BeNil())
	Expect(tasks).To(HaveLen(2))
	Expect(tasks[0].ID).To(Equal(first.ID))
	Expect(tasks[1].ID).To(Equal(second.ID))
	Expect(tasks[0].DueDate).To(Equal(domain.MustParseDate("2024-05-01")))

	updated, err := s.tasks.Update(ctx, first.ID, func(task *domain.Task) error {
		task.IsComplete = true
		return nil
	})
	Expect(err).To(BeNil())
	Expect(updated.IsComplete).To(BeTrue())

	Expect(s.tasks.DeleteByID(ctx, first.ID)).To(Succeed())

	_, err = s.tasks.GetByID(ctx, first.ID)
	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *PostgresRepositoryTestSuite) TestTasks_UpdateLocksRow() {
	owner := s.createUser("owner@example.com")
	task := s.createTask(owner.ID, "counter")

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			s.tasks.Update(context.Background(), task.ID, func(t *domain.Task) error {
				t.IsComplete = !t.IsComplete
				return nil
			})
		}()
	}

	wg.Wait()

	stored, err := s.tasks.GetByID(context.Background(), task.ID)
	Expect(err).To(BeNil())
	Expect(stored.IsComplete).To(BeFalse())
}
