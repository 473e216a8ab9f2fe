package insight

import (
	"github.com/smallbiznis/seatwise/internal/insight/repository"
	"github.com/smallbiznis/seatwise/internal/insight/service"
	"go.uber.org/fx"
)

var Module = fx.Module("insight.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
