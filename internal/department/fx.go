package department

import (
	"github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/department/service"
	"github.com/smallbiznis/seatwise/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("department.service",
	fx.Provide(repository.ProvideStore[domain.Department]),
	fx.Provide(service.New),
)
