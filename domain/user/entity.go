package user

import (
	"time"
)

// Role is the access level of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User represents a user entity in the system.
type User struct {
	ID              string `gorm:"primaryKey;type:text"`
	Name            string `gorm:"not null;type:text"`
	Email           string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash    string `gorm:"not null;type:text"`
	ProfileImageURL string `gorm:"type:text"`
	Role            Role   `gorm:"not null;type:text;default:member"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Actor returns the identity of the user as seen by the task engine.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Actor is the authenticated identity making a request.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims represents JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
