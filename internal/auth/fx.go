package auth

import (
	"github.com/smallbiznis/seatwise/internal/auth/repository"
	"github.com/smallbiznis/seatwise/internal/auth/service"
	"github.com/smallbiznis/seatwise/internal/auth/session"
	"github.com/smallbiznis/seatwise/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(token.NewIssuer),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
