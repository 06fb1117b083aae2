package dto

import (
	"time"

	"github.com/spec-kit/issue-service/internal/domain"
)

// CreateUserRequest payload for new users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// UpdateUserRequest payload for profile updates.
type UpdateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Department string `json:"department"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// UserResponse provides user info. The password hash is never exposed.
type UserResponse struct {
	ID                    int64      `json:"id"`
	Username              string     `json:"username"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone"`
	Address               string     `json:"address"`
	Department            string     `json:"department"`
	AssignedIssueIDs      []int64    `json:"assigned_issue_ids,omitempty"`
	CollaboratingIssueIDs []int64    `json:"collaborating_issue_ids,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at"`
}

// NewUserResponse maps a user aggregate onto its response shape.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
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

// NewUserResponses maps a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	result := make([]UserResponse, 0, len(users))
	for idx := range users {
		result = append(result, NewUserResponse(&users[idx]))
	}
	return result
}
