package auth

import (
	"testing"
	"time"

	"github.com/dmercado-dev/shopforge-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func mintToken(t *testing.T, cfg config.JWTConfig, claims *AccessTokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestParseAccessToken(t *testing.T) {
	t.Parallel()

	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "shopforge"}
	tenantID := uuid.New()
	raw := mintToken(t, cfg, &AccessTokenClaims{
		TenantID:  tenantID,
		SessionID: "sess-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := ParseAccessToken(cfg, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.TenantID != tenantID {
		t.Fatalf("tenant mismatch: %s", claims.TenantID)
	}
	if claims.SessionID != "sess-123" {
		t.Fatalf("session mismatch: %s", claims.SessionID)
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "shopforge"}
	raw := mintToken(t, cfg, &AccessTokenClaims{
		TenantID:  uuid.New(),
		SessionID: "sess-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := ParseAccessToken(cfg, raw); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestParseAccessTokenRequiresTenant(t *testing.T) {
	t.Parallel()

	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "shopforge"}
	raw := mintToken(t, cfg, &AccessTokenClaims{
		SessionID: "sess-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := ParseAccessToken(cfg, raw); err == nil {
		t.Fatal("expected missing tenant error")
	}
}
