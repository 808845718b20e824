package core_fx

import (
	"go.uber.org/fx"

	"arcanum/pkg/analytics"
	"arcanum/pkg/config"
	"arcanum/pkg/logger"
	"arcanum/pkg/memcache"
)

var Module = fx.Provide(
	config.Load,
	provideLogger,
	provideEmitter,
	provideProcessedEvents,
)

func provideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(!cfg.IsProduction())
}

func provideEmitter(log *logger.Logger) analytics.Emitter {
	return analytics.NewLogEmitter(log)
}

func provideProcessedEvents() memcache.ProcessedEventStore {
	return memcache.NewProcessedEvents()
}
