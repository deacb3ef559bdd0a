package activation

import (
	"github.com/smallbiznis/scraprates/internal/activation/repository"
	"github.com/smallbiznis/scraprates/internal/activation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
