package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-service/internal/domain"
	"github.com/spec-kit/issue-service/internal/events"
	apperrors "github.com/spec-kit/issue-service/pkg/util"
)

// mockIssueRepo is a test double for repository.IssueRepository.
type mockIssueRepo struct {
	saveFunc                  func(ctx context.Context, issue *domain.Issue) error
	getByIDFunc               func(ctx context.Context, id int64) (*domain.Issue, error)
	listFunc                  func(ctx context.Context) ([]domain.Issue, error)
	listByStatusFunc          func(ctx context.Context, status domain.IssueStatus) ([]domain.Issue, error)
	listByAssignedUserFunc    func(ctx context.Context, userID int64) ([]domain.Issue, error)
	listIDsByCollaboratorFunc func(ctx context.Context, userID int64) ([]int64, error)
	deleteFunc                func(ctx context.Context, id int64) error
	existsFunc                func(ctx context.Context, id int64) (bool, error)
}

func (m *mockIssueRepo) Save(ctx context.Context, issue *domain.Issue) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, issue)
	}
	if issue.ID == 0 {
		issue.ID = 1
	}
	return nil
}

func (m *mockIssueRepo) GetByID(ctx context.Context, id int64) (*domain.Issue, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockIssueRepo) List(ctx context.Context) ([]domain.Issue, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockIssueRepo) ListByStatus(ctx context.Context, status domain.IssueStatus) ([]domain.Issue, error) {
	if m.listByStatusFunc != nil {
		return m.listByStatusFunc(ctx, status)
	}
	return nil, nil
}

func (m *mockIssueRepo) ListByAssignedUser(ctx context.Context, userID int64) ([]domain.Issue, error) {
	if m.listByAssignedUserFunc != nil {
		return m.listByAssignedUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockIssueRepo) ListIDsByCollaborator(ctx context.Context, userID int64) ([]int64, error) {
	if m.listIDsByCollaboratorFunc != nil {
		return m.listIDsByCollaboratorFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockIssueRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockIssueRepo) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, id)
	}
	return false, nil
}

// mockUserRepo is a test double for repository.UserRepository.
type mockUserRepo struct {
	saveFunc             func(ctx context.Context, user *domain.User) error
	getByIDFunc          func(ctx context.Context, id int64) (*domain.User, error)
	getByUsernameFunc    func(ctx context.Context, username string) (*domain.User, error)
	getByEmailFunc       func(ctx context.Context, email string) (*domain.User, error)
	listFunc             func(ctx context.Context) ([]domain.User, error)
	listByDepartmentFunc func(ctx context.Context, department string) ([]domain.User, error)
	deleteFunc           func(ctx context.Context, id int64) error
	existsFunc           func(ctx context.Context, id int64) (bool, error)
	existsByUsernameFunc func(ctx context.Context, username string) (bool, error)
	existsByEmailFunc    func(ctx context.Context, email string) (bool, error)

	getByIDCalls int
}

func (m *mockUserRepo) Save(ctx context.Context, user *domain.User) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, user)
	}
	if user.ID == 0 {
		user.ID = 1
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.getByIDCalls++
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFunc != nil {
		return m.getByUsernameFunc(ctx, username)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) ListByDepartment(ctx context.Context, department string) ([]domain.User, error) {
	if m.listByDepartmentFunc != nil {
		return m.listByDepartmentFunc(ctx, department)
	}
	return nil, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, id)
	}
	return false, nil
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFunc != nil {
		return m.existsByUsernameFunc(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFunc != nil {
		return m.existsByEmailFunc(ctx, email)
	}
	return false, nil
}

// capturingDispatcher records every published event.
type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *capturingDispatcher) last(t *testing.T) events.Event {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) == 0 {
		t.Fatal("expected at least one event published")
	}
	return d.events[len(d.events)-1]
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, domainErr.Code, err)
	}
}

// userFixture returns a stored-looking user.
func userFixture(id int64) *domain.User {
	return &domain.User{
		ID:       id,
		Username: "alice",
		Name:     "Alice",
		Email:    "a@x.com",
	}
}
