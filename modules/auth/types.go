package auth

import (
	"time"

	domain "github.com/example/task-manager/domain/user"
)

// UserResponse is the public projection of a user. The password hash never leaves the module.
type UserResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	ProfileImageURL string      `json:"profileImageUrl"`
	Role            domain.Role `json:"role"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ToUserResponse projects a stored user.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// User converts the projection back into a domain user without credentials.
func (r UserResponse) User() *domain.User {
	return &domain.User{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		ProfileImageURL: r.ProfileImageURL,
		Role:            r.Role,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ProfileImageURL  string `json:"profileImageUrl"`
	AdminInviteToken string `json:"adminInviteToken"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login and update-profile.
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

func toAuthResponse(s *Session) AuthResponse {
	return AuthResponse{
		User:         ToUserResponse(s.User),
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
		ExpiresIn:    s.Tokens.ExpiresIn,
		TokenType:    s.Tokens.TokenType,
	}
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse represents a token refresh response.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// ListUsersRequest selects users by role; empty means all.
type ListUsersRequest struct {
	Role domain.Role `json:"role,omitempty"`
}

// ListUsersResponse carries the listed users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// FindMissingUsersRequest carries the user ids to check.
type FindMissingUsersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// FindMissingUsersResponse lists the ids that belong to no user.
type FindMissingUsersResponse struct {
	Missing []string `json:"missing"`
}

// UpdateProfileRequest changes the caller's own profile. Empty fields keep the stored value.
type UpdateProfileRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}
