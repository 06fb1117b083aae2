package domain

import (
	"strings"
	"time"
)

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "OPEN"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
	IssueStatusClosed     IssueStatus = "CLOSED"
	IssueStatusRejected   IssueStatus = "REJECTED"
)

// IssuePriority enumerates urgency levels.
type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "LOW"
	IssuePriorityNormal IssuePriority = "NORMAL"
	IssuePriorityHigh   IssuePriority = "HIGH"
	IssuePriorityUrgent IssuePriority = "URGENT"
)

// ParseStatus converts a raw status string into an IssueStatus.
func ParseStatus(raw string) (IssueStatus, error) {
	status := IssueStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed, IssueStatusRejected:
		return status, nil
	}
	return "", &UnknownStatusError{Value: raw}
}

// ParsePriority converts a raw priority string into an IssuePriority.
// Unrecognized or empty values fall back to NORMAL rather than failing.
func ParsePriority(raw string) IssuePriority {
	priority := IssuePriority(strings.ToUpper(strings.TrimSpace(raw)))
	switch priority {
	case IssuePriorityLow, IssuePriorityNormal, IssuePriorityHigh, IssuePriorityUrgent:
		return priority
	}
	return IssuePriorityNormal
}

// Issue is the aggregate for tracked work items. It owns lifecycle state,
// priority, assignment and collaboration; mutation goes through the methods
// below so updated timestamps and status coupling stay consistent.
type Issue struct {
	ID            int64
	Title         string
	Description   string
	Requester     string
	Status        IssueStatus
	Priority      IssuePriority
	AssignedUser  *User
	Collaborators []User
	Tags          []string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// NewIssue creates a fresh issue. A missing requester becomes "Unknown",
// a missing priority becomes NORMAL, and providing an assigned user at
// creation starts the issue as IN_PROGRESS instead of OPEN. Tags are always
// a non-nil slice; the store column is a non-null array.
func NewIssue(title, description, requester string, priority IssuePriority, tags []string, assigned *User) *Issue {
	issue := &Issue{
		Title:       title,
		Description: description,
		Requester:   requester,
		Status:      IssueStatusOpen,
		Priority:    priority,
		Tags:        append([]string{}, tags...),
		CreatedAt:   time.Now(),
	}
	if issue.Requester == "" {
		issue.Requester = "Unknown"
	}
	if issue.Priority == "" {
		issue.Priority = IssuePriorityNormal
	}
	if assigned != nil {
		issue.AssignedUser = assigned
		issue.Status = IssueStatusInProgress
	}
	return issue
}

// Assign puts the issue in the given user's hands and moves it to IN_PROGRESS.
func (i *Issue) Assign(user *User) error {
	if user == nil {
		return ErrNilUser
	}
	i.AssignedUser = user
	i.Status = IssueStatusInProgress
	i.touch()
	return nil
}

// Unassign clears the assignee and returns the issue to OPEN.
func (i *Issue) Unassign() {
	i.AssignedUser = nil
	i.Status = IssueStatusOpen
	i.touch()
}

// Resolve marks in-progress work as done. Only IN_PROGRESS issues resolve.
func (i *Issue) Resolve() error {
	if i.Status != IssueStatusInProgress {
		return &InvalidTransitionError{From: i.Status, To: IssueStatusResolved}
	}
	i.Status = IssueStatusResolved
	i.touch()
	return nil
}

// Close finalizes resolved work. Only RESOLVED issues close.
func (i *Issue) Close() error {
	if i.Status != IssueStatusResolved {
		return &InvalidTransitionError{From: i.Status, To: IssueStatusClosed}
	}
	i.Status = IssueStatusClosed
	i.touch()
	return nil
}

// Reject marks the issue rejected from any state and appends the reason to
// the description.
func (i *Issue) Reject(reason string) {
	i.Status = IssueStatusRejected
	i.Description = i.Description + "\n\nRejection reason: " + reason
	i.touch()
}

// ForceStatus overwrites the status unconditionally, bypassing the
// Resolve/Close guards. It exists so operators can correct state manually.
func (i *Issue) ForceStatus(status IssueStatus) {
	i.Status = status
	i.touch()
}

// UpdateDetails rewrites title and description.
func (i *Issue) UpdateDetails(title, description string) {
	i.Title = title
	i.Description = description
	i.touch()
}

// AddCollaborator adds the user to the collaborator set. Membership is by
// user id, so adding the same user twice is a no-op.
func (i *Issue) AddCollaborator(user *User) error {
	if user == nil {
		return ErrNilUser
	}
	if !i.HasCollaborator(user.ID) {
		i.Collaborators = append(i.Collaborators, *user)
	}
	i.touch()
	return nil
}

// RemoveCollaborator drops the user from the collaborator set.
func (i *Issue) RemoveCollaborator(user *User) error {
	if user == nil {
		return ErrNilUser
	}
	kept := i.Collaborators[:0]
	for _, c := range i.Collaborators {
		if c.ID != user.ID {
			kept = append(kept, c)
		}
	}
	i.Collaborators = kept
	i.touch()
	return nil
}

// HasCollaborator reports whether the user id is in the collaborator set.
func (i *Issue) HasCollaborator(userID int64) bool {
	for _, c := range i.Collaborators {
		if c.ID == userID {
			return true
		}
	}
	return false
}

// AssignedUserID returns the assignee id, or nil when unassigned.
func (i *Issue) AssignedUserID() *int64 {
	if i.AssignedUser == nil {
		return nil
	}
	id := i.AssignedUser.ID
	return &id
}

// CollaboratorIDs returns the collaborator ids as a new slice.
func (i *Issue) CollaboratorIDs() []int64 {
	ids := make([]int64, 0, len(i.Collaborators))
	for _, c := range i.Collaborators {
		ids = append(ids, c.ID)
	}
	return ids
}

func (i *Issue) touch() {
	now := time.Now()
	i.UpdatedAt = &now
}
