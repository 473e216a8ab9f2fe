package gamification

import (
	"github.com/smallbiznis/seatwise/internal/gamification/repository"
	"github.com/smallbiznis/seatwise/internal/gamification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("gamification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
