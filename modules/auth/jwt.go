package auth

import (
	"errors"
	"time"

	"github.com/example/task-manager/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	Issuer               string
}

// NewJWTConfig derives the token settings from the auth configuration,
// falling back to defaults for unset values.
func NewJWTConfig(cfg config.AuthConfig) JWTConfig {
	jc := JWTConfig{
		SecretKey:            cfg.SecretKey,
		AccessTokenDuration:  cfg.AccessTokenTTL,
		RefreshTokenDuration: cfg.RefreshTokenTTL,
		Issuer:               cfg.Issuer,
	}
	def := DefaultJWTConfig()
	if jc.SecretKey == "" {
		jc.SecretKey = def.SecretKey
	}
	if jc.AccessTokenDuration <= 0 {
		jc.AccessTokenDuration = def.AccessTokenDuration
	}
	if jc.RefreshTokenDuration <= 0 {
		jc.RefreshTokenDuration = def.RefreshTokenDuration
	}
	if jc.Issuer == "" {
		jc.Issuer = def.Issuer
	}
	return jc
}

// DefaultJWTConfig returns a default JWT configuration.
// In production, the secret key should be loaded from JWT_SECRET_KEY.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:            "your-secret-key-change-in-production",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "task-manager",
	}
}

// JWTClaims represents the custom claims for JWT tokens.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{config: config}
}

// GenerateAccessToken generates a new access token for the given user.
func (m *JWTManager) GenerateAccessToken(userID, email string) (string, error) {
	return m.sign(userID, email, tokenTypeAccess, m.config.AccessTokenDuration)
}

// GenerateRefreshToken generates a new refresh token for the given user.
func (m *JWTManager) GenerateRefreshToken(userID, email string) (string, error) {
	return m.sign(userID, email, tokenTypeRefresh, m.config.RefreshTokenDuration)
}

func (m *JWTManager) sign(userID, email, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.SecretKey))
}

// ValidateToken verifies the signature, issuer and expiry of a token of any type.
func (m *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	}, jwt.WithIssuer(m.config.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken validates an access token.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return m.validateType(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return m.validateType(tokenString, tokenTypeRefresh)
}

func (m *JWTManager) validateType(tokenString, tokenType string) (*JWTClaims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AccessTokenDuration returns the access token lifetime in seconds.
func (m *JWTManager) AccessTokenDuration() int64 {
	return int64(m.config.AccessTokenDuration.Seconds())
}
