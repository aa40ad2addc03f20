package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	domain "github.com/example/task-manager/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrNameRequired is returned when a user is registered without a name.
	ErrNameRequired = errors.New("name is required")
)

// AuthService handles identity business logic.
type AuthService struct {
	repo        *UserRepository
	hasher      *PasswordHasher
	jwt         *JWTManager
	inviteToken string
	now         func() time.Time
}

// NewAuthService creates a new AuthService. A non-empty inviteToken lets
// registrations presenting it receive the admin role.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, inviteToken string) *AuthService {
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		jwt:         jwt,
		inviteToken: inviteToken,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Registration is the input of Register.
type Registration struct {
	Name             string
	Email            string
	Password         string
	ProfileImageURL  string
	AdminInviteToken string
}

// Session is an authenticated user together with fresh tokens.
type Session struct {
	User   *domain.User
	Tokens *domain.TokenPair
}

// Register creates a new user account and signs it in.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*Session, error) {
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return nil, err
	}
	if err := CheckPassword(reg.Password); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := domain.RoleMember
	if s.inviteToken != "" && reg.AdminInviteToken == s.inviteToken {
		role = domain.RoleAdmin
	}

	now := s.now()
	user := &domain.User{
		ID:              uuid.New().String(),
		Name:            name,
		Email:           email,
		PasswordHash:    passwordHash,
		ProfileImageURL: reg.ProfileImageURL,
		Role:            role,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.session(user)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// RefreshTokens exchanges a refresh token for a new token pair.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// The user may have been removed since the token was issued
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return s.generateTokenPair(user.ID, user.Email)
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// ListUsers returns the users with the given role, or every user when role is empty.
func (s *AuthService) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return s.repo.List(ctx, role)
}

// FindMissing returns the ids, in input order, that belong to no user.
func (s *AuthService) FindMissing(ctx context.Context, ids []string) ([]string, error) {
	found, err := s.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}
	existing := make(map[string]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}

	missing := []string{}
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ProfileUpdate is the input of UpdateProfile. Empty fields keep the stored value.
type ProfileUpdate struct {
	UserID   string
	Name     string
	Email    string
	Password string
}

// UpdateProfile changes a user's own name, email or password and reissues tokens.
func (s *AuthService) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*Session, error) {
	user, err := s.repo.FindByID(ctx, upd.UserID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(upd.Name); name != "" {
		user.Name = name
	}
	if upd.Email != "" {
		email, err := normalizeEmail(upd.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			exists, err := s.repo.EmailExists(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email existence: %w", err)
			}
			if exists {
				return nil, ErrUserExists
			}
			user.Email = email
		}
	}
	if upd.Password != "" {
		if err := CheckPassword(upd.Password); err != nil {
			return nil, err
		}
		if user.PasswordHash, err = s.hasher.Hash(upd.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) || errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.session(user)
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	tokens, err := s.generateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: tokens}, nil
}

// generateTokenPair generates both access and refresh tokens.
func (s *AuthService) generateTokenPair(userID, email string) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

// normalizeEmail validates a bare address and lowercases it.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}
