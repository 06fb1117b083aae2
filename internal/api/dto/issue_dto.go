package dto

import (
	"time"

	"github.com/spec-kit/issue-service/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Requester      string   `json:"requester"`
	Priority       string   `json:"priority"`
	Tags           []string `json:"tags"`
	AssignedUserID *int64   `json:"assigned_user_id"`
}

// AssignIssueRequest payload.
type AssignIssueRequest struct {
	UserID int64 `json:"user_id"`
}

// UnassignIssueRequest payload; the user id identifies the actor, not an
// assignee.
type UnassignIssueRequest struct {
	UserID *int64 `json:"user_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	UserID *int64 `json:"user_id"`
}

// UpdateIssueRequest payload for title/description edits.
type UpdateIssueRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      *int64 `json:"user_id"`
}

// CollaboratorRequest payload.
type CollaboratorRequest struct {
	UserID int64 `json:"user_id"`
}

// UserSummary is the compact user representation embedded in issues.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// IssueResponse provides full issue info.
type IssueResponse struct {
	ID            int64                `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Requester     string               `json:"requester"`
	Status        domain.IssueStatus   `json:"status"`
	Priority      domain.IssuePriority `json:"priority"`
	AssignedUser  *UserSummary         `json:"assigned_user"`
	Collaborators []UserSummary        `json:"collaborators"`
	Tags          []string             `json:"tags"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     *time.Time           `json:"updated_at"`
}

// NewIssueResponse maps an issue aggregate onto its response shape.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	resp := IssueResponse{
		ID:            issue.ID,
		Title:         issue.Title,
		Description:   issue.Description,
		Requester:     issue.Requester,
		Status:        issue.Status,
		Priority:      issue.Priority,
		Collaborators: make([]UserSummary, 0, len(issue.Collaborators)),
		Tags:          append([]string{}, issue.Tags...),
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
	}
	if issue.AssignedUser != nil {
		summary := newUserSummary(issue.AssignedUser)
		resp.AssignedUser = &summary
	}
	for idx := range issue.Collaborators {
		resp.Collaborators = append(resp.Collaborators, newUserSummary(&issue.Collaborators[idx]))
	}
	return resp
}

// NewIssueResponses maps a list of issues.
func NewIssueResponses(issues []domain.Issue) []IssueResponse {
	result := make([]IssueResponse, 0, len(issues))
	for idx := range issues {
		result = append(result, NewIssueResponse(&issues[idx]))
	}
	return result
}

func newUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
	}
}
