package environmental

import (
	"github.com/smallbiznis/seatwise/internal/environmental/repository"
	"github.com/smallbiznis/seatwise/internal/environmental/service"
	"go.uber.org/fx"
)

var Module = fx.Module("environmental.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
