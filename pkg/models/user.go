package models

import "time"

const (
	RoleReader  = "READER"
	RoleCreator = "CREATOR"
	RoleAdmin   = "ADMIN"
)

// User is a platform account. PasswordHash never leaves the backend:
// it is excluded from JSON and empty for Google-only accounts.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar,omitempty"`
	Role         string    `json:"role"`
	GoogleID     string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the author/reviewer shape embedded in comic and review
// responses.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
