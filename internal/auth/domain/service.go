package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a session cookie token to its user.
	Authenticate(ctx context.Context, rawToken string) (*User, error)
	// AuthenticateBearer resolves a signed access token to its user.
	AuthenticateBearer(ctx context.Context, accessToken string) (*User, error)
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
	// PruneSessions deletes sessions past their expiry or revocation retention window.
	PruneSessions(ctx context.Context) (int64, error)
}

type CreateUserRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID

	// AccessToken is empty unless AUTH_JWT_SECRET is configured.
	AccessToken          string
	AccessTokenExpiresAt *time.Time
}
