package events

import (
	"time"

	"github.com/spec-kit/issue-service/internal/domain"
)

// EntityKind identifies which aggregate an event describes.
type EntityKind string

const (
	EntityIssue EntityKind = "issue"
	EntityUser  EntityKind = "user"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated  EventType = "issue_created"
	EventIssueUpdated  EventType = "issue_updated"
	EventIssueAssigned EventType = "issue_assigned"
	EventIssueResolved EventType = "issue_resolved"
	EventIssueClosed   EventType = "issue_closed"
	EventIssueRejected EventType = "issue_rejected"
	// EventIssueDeleted is part of the taxonomy but no workflow emits it yet.
	EventIssueDeleted EventType = "issue_deleted"

	EventUserCreated        EventType = "user_created"
	EventUserProfileUpdated EventType = "user_profile_updated"
	// EventUserUpdated and EventUserDeleted are defined for subscribers but
	// currently unemitted, matching the issue-side deletion taxonomy.
	EventUserUpdated EventType = "user_updated"
	EventUserDeleted EventType = "user_deleted"
)

// Event is a lifecycle notification describing a committed aggregate
// mutation. Payload holds a snapshot of the entity after the mutation.
type Event struct {
	ID          string     `json:"id"`
	Type        EventType  `json:"type"`
	Entity      EntityKind `json:"entity"`
	EntityID    int64      `json:"entity_id"`
	ActorUserID *int64     `json:"actor_user_id,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Payload     any        `json:"payload"`
}

// IssueSnapshot is the issue state carried on issue events.
type IssueSnapshot struct {
	ID              int64                `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Requester       string               `json:"requester"`
	Status          domain.IssueStatus   `json:"status"`
	Priority        domain.IssuePriority `json:"priority"`
	AssignedUserID  *int64               `json:"assigned_user_id,omitempty"`
	CollaboratorIDs []int64              `json:"collaborator_ids"`
	Tags            []string             `json:"tags"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       *time.Time           `json:"updated_at,omitempty"`
}

// UserSnapshot is the user state carried on user events. It never includes
// password material.
type UserSnapshot struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	Address    string     `json:"address,omitempty"`
	Department string     `json:"department,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// SnapshotIssue captures the issue's current state for event payloads.
func SnapshotIssue(issue *domain.Issue) IssueSnapshot {
	return IssueSnapshot{
		ID:              issue.ID,
		Title:           issue.Title,
		Description:     issue.Description,
		Requester:       issue.Requester,
		Status:          issue.Status,
		Priority:        issue.Priority,
		AssignedUserID:  issue.AssignedUserID(),
		CollaboratorIDs: issue.CollaboratorIDs(),
		Tags:            append([]string(nil), issue.Tags...),
		CreatedAt:       issue.CreatedAt,
		UpdatedAt:       issue.UpdatedAt,
	}
}

// SnapshotUser captures the user's current state for event payloads.
func SnapshotUser(user *domain.User) UserSnapshot {
	return UserSnapshot{
		ID:         user.ID,
		Username:   user.Username,
		Name:       user.Name,
		Email:      user.Email,
		Phone:      user.Phone,
		Address:    user.Address,
		Department: user.Department,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
