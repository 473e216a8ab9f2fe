package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/seatwise/internal/auth/domain"
	"github.com/smallbiznis/seatwise/internal/auth/repository"
	"github.com/smallbiznis/seatwise/internal/auth/token"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	"github.com/smallbiznis/seatwise/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, cfg config.Config) (authdomain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&authdomain.User{}, &authdomain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC))

	return New(Params{
		Log:         zap.NewNop(),
		Config:      cfg,
		Repo:        repo,
		SessionRepo: sessionRepo,
		GenID:       node,
		Clock:       clk,
		Tokens:      token.NewIssuer(cfg),
	}), clk
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, config.Config{})

	user, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if user.DisplayName != "alice" {
		t.Fatalf("expected default display name alice, got %q", user.DisplayName)
	}

	_, err = svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if err != authdomain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t, config.Config{})
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "nope", Password: "long-enough"}); err != authdomain.ErrInvalidEmail {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "a@example.com", Password: "short"}); err != authdomain.ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "A@Example.com", Password: "long-enough"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "a@example.com", Password: "long-enough"}); err != authdomain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, clk := newTestService(t, config.Config{})
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "bob@example.com", Password: "hunter2-hunter2"}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	result, err := svc.Login(ctx, authdomain.LoginRequest{Email: "bob@example.com", Password: "hunter2-hunter2"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.AccessToken != "" {
		t.Fatalf("expected no access token without a secret")
	}
	if got := result.ExpiresAt.Sub(clk.Now()); got != 7*24*time.Hour {
		t.Fatalf("expected 7 day session, got %v", got)
	}

	user, err := svc.Authenticate(ctx, result.RawToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.Email != "bob@example.com" {
		t.Fatalf("unexpected user %q", user.Email)
	}

	if err := svc.Logout(ctx, result.RawToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, result.RawToken); err != authdomain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	svc, clk := newTestService(t, config.Config{})
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "carol@example.com", Password: "password-123"}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	result, err := svc.Login(ctx, authdomain.LoginRequest{Email: "carol@example.com", Password: "password-123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	clk.Advance(8 * 24 * time.Hour)
	if _, err := svc.Authenticate(ctx, result.RawToken); err != authdomain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	svc, clk := newTestService(t, config.Config{AuthJWTSecret: "test-secret", AuthTokenTTL: time.Hour})
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "dan@example.com", Password: "password-123"}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	result, err := svc.Login(ctx, authdomain.LoginRequest{Email: "dan@example.com", Password: "password-123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.AccessToken == "" || result.AccessTokenExpiresAt == nil {
		t.Fatalf("expected an access token")
	}

	user, err := svc.AuthenticateBearer(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("bearer auth failed: %v", err)
	}
	if user.Email != "dan@example.com" {
		t.Fatalf("unexpected user %q", user.Email)
	}

	clk.Advance(2 * time.Hour)
	if _, err := svc.AuthenticateBearer(ctx, result.AccessToken); err != authdomain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionTTLFromConfig(t *testing.T) {
	svc, clk := newTestService(t, config.Config{AuthSessionTTL: 12 * time.Hour})
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "erin@example.com", Password: "password-123"}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	result, err := svc.Login(ctx, authdomain.LoginRequest{Email: "erin@example.com", Password: "password-123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got := result.ExpiresAt.Sub(clk.Now()); got != 12*time.Hour {
		t.Fatalf("expected 12h session, got %v", got)
	}
}

func TestPruneSessions(t *testing.T) {
	svc, clk := newTestService(t, config.Config{})
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Email: "dave@example.com", Password: "password-123"}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	login := func() *authdomain.LoginResult {
		t.Helper()
		result, err := svc.Login(ctx, authdomain.LoginRequest{Email: "dave@example.com", Password: "password-123"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		return result
	}

	revoked := login()
	stale := login()
	if err := svc.Logout(ctx, revoked.RawToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	// A revoked session is kept for a day.
	removed, err := svc.PruneSessions(ctx)
	if err != nil || removed != 0 {
		t.Fatalf("expected nothing pruned, got %d (%v)", removed, err)
	}

	clk.Advance(2 * 24 * time.Hour)
	removed, err = svc.PruneSessions(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected revoked session pruned, got %d (%v)", removed, err)
	}
	if _, err := svc.Authenticate(ctx, revoked.RawToken); err != authdomain.ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession after prune, got %v", err)
	}

	active := login()
	clk.Advance(6*24*time.Hour + 12*time.Hour)
	removed, err = svc.PruneSessions(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected expired session pruned, got %d (%v)", removed, err)
	}
	if _, err := svc.Authenticate(ctx, stale.RawToken); err != authdomain.ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession for pruned session, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, active.RawToken); err != nil {
		t.Fatalf("active session should survive pruning: %v", err)
	}
}
