package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nayochev/schedule-arranger/config"
	"github.com/nayochev/schedule-arranger/internal/dto"
	"github.com/nayochev/schedule-arranger/internal/model"
	"github.com/nayochev/schedule-arranger/pkg/jwt"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-testing",
			AccessTokenTTL: 15 * time.Minute,
			Issuer:         "schedule-arranger-test",
		},
	}
}

func setupTestAuthService() (AuthService, *mockRepos, *jwt.Manager) {
	repo, mocks := newMockRepository()
	cfg := testConfig()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repo, jwtMgr, nil, zap.NewNop())
	return svc, mocks, jwtMgr
}

func seedUser(t *testing.T, mocks *mockRepos, username, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	u := &model.User{Username: username, PasswordHash: string(hash)}
	if err := mocks.users.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

// ── Register 测试 ──

func TestAuthService_Register_Success(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if resp.UserID == 0 || resp.Username != "alice" {
		t.Errorf("响应不符: %+v", resp)
	}

	stored, _ := mocks.users.GetByUsername(context.Background(), "alice")
	if stored.PasswordHash == "password123" {
		t.Error("密码不应明文存储")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")) != nil {
		t.Error("存储的哈希应能校验原密码")
	}
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	seedUser(t, mocks, "alice", "password123")

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: "alice", Password: "another-pass"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("期望 ErrUsernameTaken，实际: %v", err)
	}
}

// ── Login 测试 ──

func TestAuthService_Login_Success(t *testing.T) {
	svc, mocks, jwtMgr := setupTestAuthService()
	u := seedUser(t, mocks, "alice", "password123")

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("期望 TokenType=Bearer，实际=%s", resp.TokenType)
	}
	if resp.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", resp.ExpiresIn)
	}

	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("签发的 Token 应可解析: %v", err)
	}
	if claims.UserID != u.UserID || claims.Username != "alice" {
		t.Errorf("Token 声明不符: %+v", claims)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	seedUser(t, mocks, "alice", "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "nobody", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("未知用户应返回 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── Logout / GetCurrentUser 测试 ──

func TestAuthService_Logout_WithoutRedis(t *testing.T) {
	svc, _, _ := setupTestAuthService()

	if err := svc.Logout(context.Background(), "some-jti", time.Now().Add(time.Hour)); err != nil {
		t.Errorf("Redis 不可用时登出应降级成功: %v", err)
	}
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	svc, mocks, _ := setupTestAuthService()
	u := seedUser(t, mocks, "alice", "password123")

	resp, err := svc.GetCurrentUser(context.Background(), u.UserID)
	if err != nil {
		t.Fatalf("GetCurrentUser 应成功: %v", err)
	}
	if resp.Username != "alice" || resp.CreatedAt == "" {
		t.Errorf("响应不符: %+v", resp)
	}

	if _, err := svc.GetCurrentUser(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
