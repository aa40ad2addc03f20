package auth

import (
	"testing"
	"time"

	"github.com/example/task-manager/config"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:            "test-secret-key",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "test-issuer",
	}
}

func TestJWTManager_GenerateAndValidateAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	manager := NewJWTManager(cfg)

	token, err := manager.GenerateAccessToken("user-123", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}

	if claims.UserID != "user-123" {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, "user-123")
	}
	if claims.Email != "test@example.com" {
		t.Errorf("claims.Email = %v, want %v", claims.Email, "test@example.com")
	}
	if claims.TokenType != tokenTypeAccess {
		t.Errorf("claims.TokenType = %v, want %v", claims.TokenType, tokenTypeAccess)
	}
	if claims.Issuer != cfg.Issuer {
		t.Errorf("claims.Issuer = %v, want %v", claims.Issuer, cfg.Issuer)
	}
}

func TestJWTManager_TokenTypesAreNotInterchangeable(t *testing.T) {
	manager := NewJWTManager(DefaultJWTConfig())

	access, err := manager.GenerateAccessToken("user-123", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	refresh, err := manager.GenerateRefreshToken("user-123", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if _, err := manager.ValidateRefreshToken(access); err != ErrInvalidToken {
		t.Errorf("ValidateRefreshToken(access) error = %v, want ErrInvalidToken", err)
	}
	if _, err := manager.ValidateAccessToken(refresh); err != ErrInvalidToken {
		t.Errorf("ValidateAccessToken(refresh) error = %v, want ErrInvalidToken", err)
	}
	if claims, err := manager.ValidateRefreshToken(refresh); err != nil || claims.TokenType != tokenTypeRefresh {
		t.Errorf("ValidateRefreshToken(refresh) = %v, %v", claims, err)
	}
}

func TestJWTManager_InvalidToken(t *testing.T) {
	manager := NewJWTManager(DefaultJWTConfig())

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "random string", token: "not.a.valid.token"},
		{name: "malformed jwt", token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateToken(tt.token); err != ErrInvalidToken {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	base := testJWTConfig()

	otherSecret := base
	otherSecret.SecretKey = "secret-key-2"
	otherIssuer := base
	otherIssuer.Issuer = "someone-else"

	tests := []struct {
		name   string
		signer JWTConfig
	}{
		{name: "different secret", signer: otherSecret},
		{name: "different issuer", signer: otherIssuer},
	}

	verifier := NewJWTManager(base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := NewJWTManager(tt.signer).GenerateAccessToken("user-123", "test@example.com")
			if err != nil {
				t.Fatalf("GenerateAccessToken() error = %v", err)
			}
			if _, err := verifier.ValidateToken(token); err == nil {
				t.Error("ValidateToken() should reject the token")
			}
		})
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenDuration = time.Millisecond
	manager := NewJWTManager(cfg)

	token, err := manager.GenerateAccessToken("user-123", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	time.Sleep(1100 * time.Millisecond) // NumericDate has second precision

	if _, err := manager.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestJWTManager_AccessTokenDuration(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenDuration = 30 * time.Minute

	if got := NewJWTManager(cfg).AccessTokenDuration(); got != 30*60 {
		t.Errorf("AccessTokenDuration() = %v, want %v", got, 30*60)
	}
}

func TestNewJWTConfig(t *testing.T) {
	got := NewJWTConfig(config.AuthConfig{
		SecretKey:      "from-env",
		AccessTokenTTL: 5 * time.Minute,
	})

	def := DefaultJWTConfig()
	if got.SecretKey != "from-env" {
		t.Errorf("SecretKey = %q, want %q", got.SecretKey, "from-env")
	}
	if got.AccessTokenDuration != 5*time.Minute {
		t.Errorf("AccessTokenDuration = %v, want %v", got.AccessTokenDuration, 5*time.Minute)
	}
	if got.RefreshTokenDuration != def.RefreshTokenDuration {
		t.Errorf("RefreshTokenDuration = %v, want default %v", got.RefreshTokenDuration, def.RefreshTokenDuration)
	}
	if got.Issuer != def.Issuer {
		t.Errorf("Issuer = %q, want default %q", got.Issuer, def.Issuer)
	}
}
