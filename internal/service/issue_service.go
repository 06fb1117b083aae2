package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-service/internal/domain"
	"github.com/spec-kit/issue-service/internal/events"
	"github.com/spec-kit/issue-service/internal/repository"
	apperrors "github.com/spec-kit/issue-service/pkg/util"
)

// rejectedViaStatusReason is appended to the description when an issue is
// rejected through the generic status-change entry point.
const rejectedViaStatusReason = "Status changed to rejected via UI"

// IssueService coordinates issue workflows: each method loads the aggregate,
// mutates it through its lifecycle methods, persists, and emits a lifecycle
// event. Event delivery failures never fail the workflow.
type IssueService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// IssueCreateInput describes issue creation payload. Priority is the raw
// caller string; unknown values silently become NORMAL.
type IssueCreateInput struct {
	Title          string
	Description    string
	Requester      string
	Priority       string
	Tags           []string
	AssignedUserID *int64
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Create validates input, builds the issue via the domain factory and
// persists it. Assigning a user at creation starts the issue IN_PROGRESS.
func (s *IssueService) Create(ctx context.Context, input IssueCreateInput) (*domain.Issue, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewInvalidArgument("title cannot be empty", nil)
	}

	var assigned *domain.User
	if input.AssignedUserID != nil {
		user, err := s.loadUser(ctx, *input.AssignedUserID)
		if err != nil {
			return nil, err
		}
		assigned = user
	}

	issue := domain.NewIssue(
		input.Title,
		input.Description,
		input.Requester,
		domain.ParsePriority(input.Priority),
		input.Tags,
		assigned,
	)
	if err := s.issues.Save(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishIssueEvent(ctx, events.EventIssueCreated, issue, nil)
	return issue, nil
}

// Get returns the issue by id.
func (s *IssueService) Get(ctx context.Context, issueID int64) (*domain.Issue, error) {
	return s.loadIssue(ctx, issueID)
}

// List returns all issues.
func (s *IssueService) List(ctx context.Context) ([]domain.Issue, error) {
	issues, err := s.issues.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListByStatus returns issues in the given status.
func (s *IssueService) ListByStatus(ctx context.Context, status domain.IssueStatus) ([]domain.Issue, error) {
	issues, err := s.issues.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListByAssignee returns issues assigned to the given user.
func (s *IssueService) ListByAssignee(ctx context.Context, userID int64) ([]domain.Issue, error) {
	issues, err := s.issues.ListByAssignedUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// Assign puts the issue in the given user's hands, moving it IN_PROGRESS.
func (s *IssueService) Assign(ctx context.Context, issueID, userID int64) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := issue.Assign(user); err != nil {
		return nil, apperrors.NewInvalidArgument(err.Error(), nil)
	}
	if err := s.issues.Save(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishIssueEvent(ctx, events.EventIssueAssigned, issue, &userID)
	return issue, nil
}

// Unassign clears the assignee and returns the issue to OPEN. No user
// lookup happens: the reference is merely cleared.
func (s *IssueService) Unassign(ctx context.Context, issueID int64, actorUserID *int64) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	issue.Unassign()
	if err := s.issues.Save(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishIssueEvent(ctx, events.EventIssueUpdated, issue, actorUserID)
	return issue, nil
}

// UpdateStatus moves the issue toward the requested status. The guarded
// lifecycle methods encode the expected path; when a guard rejects the
// transition the request still wins — the rejection is logged as a warning
// and the status is forced. Callers of this method never see an
// InvalidTransition error.
func (s *IssueService) UpdateStatus(ctx context.Context, issueID int64, target domain.IssueStatus, actorUserID *int64) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	var transitionErr error
	switch target {
	case domain.IssueStatusResolved:
		transitionErr = issue.Resolve()
	case domain.IssueStatusClosed:
		transitionErr = issue.Close()
	case domain.IssueStatusRejected:
		issue.Reject(rejectedViaStatusReason)
	default:
		// OPEN and IN_PROGRESS have no guarded path.
		issue.ForceStatus(target)
	}

	var invalid *domain.InvalidTransitionError
	if errors.As(transitionErr, &invalid) {
		s.logger.Warn("bypassing lifecycle guard, forcing status change",
			zap.Int64("issue_id", issueID),
			zap.String("from", string(invalid.From)),
			zap.String("to", string(invalid.To)),
		)
		issue.ForceStatus(target)
	} else if transitionErr != nil {
		return nil, apperrors.MapError(transitionErr)
	}

	if err := s.issues.Save(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishIssueEvent(ctx, statusEventType(target), issue, actorUserID)
	return issue, nil
}

// UpdateDetails rewrites title and description.
func (s *IssueService) UpdateDetails(ctx context.Context, issueID int64, title, description string, actorUserID *int64) (*domain.Issue, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.NewInvalidArgument("title cannot be empty", nil)
	}
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	issue.UpdateDetails(title, description)
	if err := s.issues.Save(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishIssueEvent(ctx, events.EventIssueUpdated, issue, actorUserID)
	return issue, nil
}

// AddCollaborator adds the user to the issue's collaborator set.
func (s *IssueService) AddCollaborator(ctx context.Context, issueID, userID int64) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := issue.AddCollaborator(user); err != nil {
		return nil, apperrors.NewInvalidArgument(err.Error(), nil)
	}
	if err := s.issues.Save(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishIssueEvent(ctx, events.EventIssueUpdated, issue, &userID)
	return issue, nil
}

// RemoveCollaborator drops the user from the issue's collaborator set.
func (s *IssueService) RemoveCollaborator(ctx context.Context, issueID, userID int64) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := issue.RemoveCollaborator(user); err != nil {
		return nil, apperrors.NewInvalidArgument(err.Error(), nil)
	}
	if err := s.issues.Save(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishIssueEvent(ctx, events.EventIssueUpdated, issue, &userID)
	return issue, nil
}

// Delete removes the issue after an existence check. No event is emitted
// for deletions.
func (s *IssueService) Delete(ctx context.Context, issueID int64) error {
	exists, err := s.issues.Exists(ctx, issueID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !exists {
		return apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
	}
	if err := s.issues.Delete(ctx, issueID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *IssueService) loadIssue(ctx context.Context, issueID int64) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

func (s *IssueService) loadUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// statusEventType maps a requested status onto its event kind. RESOLVED,
// CLOSED and REJECTED map one to one; everything else is a generic update.
func statusEventType(status domain.IssueStatus) events.EventType {
	switch status {
	case domain.IssueStatusResolved:
		return events.EventIssueResolved
	case domain.IssueStatusClosed:
		return events.EventIssueClosed
	case domain.IssueStatusRejected:
		return events.EventIssueRejected
	default:
		return events.EventIssueUpdated
	}
}

func (s *IssueService) publishIssueEvent(ctx context.Context, eventType events.EventType, issue *domain.Issue, actorUserID *int64) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		Entity:      events.EntityIssue,
		EntityID:    issue.ID,
		ActorUserID: actorUserID,
		Timestamp:   time.Now(),
		Payload:     events.SnapshotIssue(issue),
	}
	_ = s.dispatcher.Publish(ctx, event)
}
