package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/task-manager/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for identity operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error)
	FindMissing(ctx context.Context, ids []string) ([]string, error)
	UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*AuthResponse, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

// Register creates an account via the register service.
func (a *AuthAdapter) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"register",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, remoteError("register", err)
	}
	return &resp, nil
}

// Login authenticates via the login service.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp AuthResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"login",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("login", err)
	}
	return &resp, nil
}

// Refresh exchanges a refresh token via the refresh-token service.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp RefreshResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"refresh-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("refresh-token", err)
	}
	return &resp, nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		if resp.Error == ErrExpiredToken.Error() {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("get-user", err)
	}
	return resp.User(), nil
}

// ListUsers lists users via the list-users service.
func (a *AuthAdapter) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	req := ListUsersRequest{Role: role}
	var resp ListUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-users",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("list-users", err)
	}

	users := make([]domain.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, *u.User())
	}
	return users, nil
}

// FindMissing returns the ids that belong to no user via the find-missing-users service.
func (a *AuthAdapter) FindMissing(ctx context.Context, ids []string) ([]string, error) {
	req := FindMissingUsersRequest{UserIDs: ids}
	var resp FindMissingUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"find-missing-users",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("find-missing-users", err)
	}
	return resp.Missing, nil
}

// UpdateProfile changes the caller's profile via the update-profile service.
func (a *AuthAdapter) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-profile",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, remoteError("update-profile", err)
	}
	return &resp, nil
}

// remoteErrors are the sentinels restored from error text returned by the auth services.
var remoteErrors = []error{
	ErrUserExists,
	ErrUserNotFound,
	ErrInvalidCredentials,
	ErrInvalidEmail,
	ErrNameRequired,
	ErrWeakPassword,
	ErrPasswordTooLong,
	ErrExpiredToken,
	ErrInvalidToken,
}

func remoteError(service string, err error) error {
	msg := err.Error()
	for _, sentinel := range remoteErrors {
		if strings.Contains(msg, sentinel.Error()) {
			return sentinel
		}
	}
	return fmt.Errorf("%s request failed: %w", service, err)
}
