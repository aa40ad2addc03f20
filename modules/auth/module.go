package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// AuthModule provides identity services.
type AuthModule struct {
	db         *gorm.DB
	service    *AuthService
	dbConfig   config.DatabaseConfig
	authConfig config.AuthConfig
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(dbConfig config.DatabaseConfig, authConfig config.AuthConfig) *AuthModule {
	return &AuthModule{
		dbConfig:   dbConfig,
		authConfig: authConfig,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the user store and builds the service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.dbConfig)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewUserRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	jwtManager := NewJWTManager(NewJWTConfig(m.authConfig))
	m.service = NewAuthService(repo, NewPasswordHasher(DefaultBcryptCost), jwtManager, m.authConfig.AdminInviteToken)

	if m.authConfig.AdminInviteToken == "" {
		log.Println("[auth] Warning: ADMIN_INVITE_TOKEN not set, all registrations get the member role")
	}
	log.Printf("[auth] Module started (driver: %s)", m.dbConfig.Driver)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[auth] Error closing database: %v", err)
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.dbConfig.Driver,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-users", json.Unmarshal, json.Marshal, m.handleListUsers,
	); err != nil {
		return fmt.Errorf("failed to register list-users service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "find-missing-users", json.Unmarshal, json.Marshal, m.handleFindMissingUsers,
	); err != nil {
		return fmt.Errorf("failed to register find-missing-users service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-profile", json.Unmarshal, json.Marshal, m.handleUpdateProfile,
	); err != nil {
		return fmt.Errorf("failed to register update-profile service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, refresh-token, validate-token, get-user, " +
		"list-users, find-missing-users, update-profile")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (AuthResponse, error) {
	session, err := m.service.Register(ctx, Registration{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		ProfileImageURL:  req.ProfileImageURL,
		AdminInviteToken: req.AdminInviteToken,
	})
	if err != nil {
		return AuthResponse{}, err
	}
	log.Printf("[auth] Registered user %s (role: %s)", session.User.ID, session.User.Role)
	return toAuthResponse(session), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (AuthResponse, error) {
	session, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return AuthResponse{}, err
	}
	return toAuthResponse(session), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (RefreshResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return RefreshResponse{}, err
	}

	return RefreshResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	}, nil
}

// handleValidateToken reports validation failures in the response body, not as an error.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := ErrInvalidToken.Error()
		if errors.Is(err, ErrExpiredToken) {
			errMsg = ErrExpiredToken.Error()
		}
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, err
	}
	return ToUserResponse(user), nil
}

func (m *AuthModule) handleListUsers(ctx context.Context, req ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	users, err := m.service.ListUsers(ctx, req.Role)
	if err != nil {
		return ListUsersResponse{}, err
	}

	resp := ListUsersResponse{Users: make([]UserResponse, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, ToUserResponse(&users[i]))
	}
	return resp, nil
}

func (m *AuthModule) handleFindMissingUsers(ctx context.Context, req FindMissingUsersRequest, _ *mono.Msg) (FindMissingUsersResponse, error) {
	missing, err := m.service.FindMissing(ctx, req.UserIDs)
	if err != nil {
		return FindMissingUsersResponse{}, err
	}
	return FindMissingUsersResponse{Missing: missing}, nil
}

func (m *AuthModule) handleUpdateProfile(ctx context.Context, req UpdateProfileRequest, _ *mono.Msg) (AuthResponse, error) {
	session, err := m.service.UpdateProfile(ctx, ProfileUpdate{
		UserID:   req.UserID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return AuthResponse{}, err
	}
	return toAuthResponse(session), nil
}
