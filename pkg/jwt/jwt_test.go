package jwt

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/nayochev/schedule-arranger/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: 24 * time.Hour,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("期望 UserID=42，实际=%d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("期望 Username=alice，实际=%s", claims.Username)
	}
	if claims.Subject != "42" {
		t.Errorf("期望 Subject=42，实际=%s", claims.Subject)
	}
	if claims.Issuer != "schedule-arranger" {
		t.Errorf("期望 Issuer=schedule-arranger，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("AccessToken TTL 期望约24h，实际=%v", ttl)
	}
}

func TestGenerateAccessToken_ZeroUserID(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(0, "testuser")
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}
	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("user_id=0 的 token 应可解析: %v", err)
	}
	if claims.UserID != 0 || claims.Subject != "0" {
		t.Errorf("期望 UserID=0，实际=%d (sub=%s)", claims.UserID, claims.Subject)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken(1, "alice")
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_WrongIssuer(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: 15 * time.Minute,
		Issuer:         "someone-else",
	})

	token, _ := m1.GenerateAccessToken(1, "alice")
	if _, err := m2.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("签发者不符期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_SubjectMismatch(t *testing.T) {
	m := newTestManager()
	claims := Claims{
		UserID:   1,
		Username: "alice",
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   "2",
			Issuer:    "schedule-arranger",
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		t.Fatalf("签名失败: %v", err)
	}

	if _, err := m.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("subject 与 user_id 不一致期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: -time.Minute,
	})

	token, _ := m.GenerateAccessToken(1, "alice")

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}
