package domain

import (
	"strings"
	"time"
)

// User is the domain model for people who file, work on and collaborate on
// issues. Issues reference users by id; the user record does not own any
// issue's lifecycle. The password hash is never part of external
// representations.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Name         string
	Email        string
	Phone        string
	Address      string
	Department   string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// NewUser creates a user with the required identity fields.
func NewUser(username, passwordHash, name, email string) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Name:         name,
		Email:        email,
		CreatedAt:    time.Now(),
	}
}

// UpdateProfile overwrites the mutable profile fields.
func (u *User) UpdateProfile(name, email, phone, address, department string) {
	u.Name = name
	u.Email = email
	u.Phone = phone
	u.Address = address
	u.Department = department
	u.touch()
}

// ChangePassword replaces the stored password hash.
func (u *User) ChangePassword(newHash string) error {
	if strings.TrimSpace(newHash) == "" {
		return ErrEmptyPassword
	}
	u.PasswordHash = newHash
	u.touch()
	return nil
}

func (u *User) touch() {
	now := time.Now()
	u.UpdatedAt = &now
}
