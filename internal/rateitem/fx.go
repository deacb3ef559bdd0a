package rateitem

import (
	"github.com/smallbiznis/scraprates/internal/rateitem/repository"
	"github.com/smallbiznis/scraprates/internal/rateitem/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rateitem.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
