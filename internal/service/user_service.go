package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/issue-service/internal/domain"
	"github.com/spec-kit/issue-service/internal/events"
	"github.com/spec-kit/issue-service/internal/repository"
	apperrors "github.com/spec-kit/issue-service/pkg/util"
)

// UserService coordinates user workflows.
type UserService struct {
	users      repository.UserRepository
	issues     repository.IssueRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	IssueRepo  repository.IssueRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// UserCreateInput describes user creation payload.
type UserCreateInput struct {
	Username string
	Password string
	Name     string
	Email    string
}

// ProfileUpdateInput describes mutable profile fields.
type ProfileUpdateInput struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	Department string
}

// IssueRefs holds the derived issue views for a user, computed on demand
// from the issue store. The issue's own fields are the source of truth.
type IssueRefs struct {
	AssignedIssueIDs      []int64
	CollaboratingIssueIDs []int64
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	cost := deps.BcryptCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		users:      deps.UserRepo,
		issues:     deps.IssueRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: cost,
	}
}

// Create validates required fields and uniqueness, hashes the password and
// persists the user.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, apperrors.NewInvalidArgument("username cannot be empty", nil)
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewInvalidArgument("password cannot be empty", nil)
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewInvalidArgument("name cannot be empty", nil)
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.NewInvalidArgument("email cannot be empty", nil)
	}

	taken, err := s.users.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if taken {
		return nil, apperrors.NewInvalidArgument("username already exists: "+input.Username, nil)
	}
	taken, err = s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if taken {
		return nil, apperrors.NewInvalidArgument("email already exists: "+input.Email, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := domain.NewUser(input.Username, string(hash), input.Name, input.Email)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishUserEvent(ctx, events.EventUserCreated, user)
	return user, nil
}

// Get returns the user by id.
func (s *UserService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	return s.load(ctx, userID)
}

// List returns all users, or users in a department if one is given.
func (s *UserService) List(ctx context.Context, department *string) ([]domain.User, error) {
	var users []domain.User
	var err error
	if department != nil && *department != "" {
		users, err = s.users.ListByDepartment(ctx, *department)
	} else {
		users, err = s.users.List(ctx)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// IssueRefsFor computes the issue ids the user is assigned to or
// collaborating on by querying the issue store.
func (s *UserService) IssueRefsFor(ctx context.Context, userID int64) (IssueRefs, error) {
	assigned, err := s.issues.ListByAssignedUser(ctx, userID)
	if err != nil {
		return IssueRefs{}, apperrors.MapError(err)
	}
	collaborating, err := s.issues.ListIDsByCollaborator(ctx, userID)
	if err != nil {
		return IssueRefs{}, apperrors.MapError(err)
	}

	refs := IssueRefs{CollaboratingIssueIDs: collaborating}
	for _, issue := range assigned {
		refs.AssignedIssueIDs = append(refs.AssignedIssueIDs, issue.ID)
	}
	return refs, nil
}

// UpdateProfile overwrites the mutable profile fields. Changing the email
// to one already used by a different user is rejected; keeping the current
// email is always allowed.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != "" && input.Email != user.Email {
		taken, err := s.users.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if taken {
			return nil, apperrors.NewInvalidArgument("email already exists: "+input.Email, nil)
		}
	}

	user.UpdateProfile(input.Name, input.Email, input.Phone, input.Address, input.Department)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishUserEvent(ctx, events.EventUserProfileUpdated, user)
	return user, nil
}

// ChangePassword hashes and stores a new password for the user.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.NewInvalidArgument("password cannot be empty", nil)
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := user.ChangePassword(string(hash)); err != nil {
		return apperrors.NewInvalidArgument(err.Error(), nil)
	}
	if err := s.users.Save(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Delete removes the user after an existence check. Dangling issue
// references are cleared by the store's foreign keys; no event is emitted.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !exists {
		return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *UserService) load(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *UserService) publishUserEvent(ctx context.Context, eventType events.EventType, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Entity:    events.EntityUser,
		EntityID:  user.ID,
		Timestamp: time.Now(),
		Payload:   events.SnapshotUser(user),
	}
	_ = s.dispatcher.Publish(ctx, event)
}
