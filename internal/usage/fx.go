package usage

import (
	"github.com/smallbiznis/chargeview/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(service.NewService),
)
