package mail_fx

import (
	"go.uber.org/fx"

	"arcanum/internal/services"
	"arcanum/pkg/config"
	"arcanum/pkg/logger"
)

var Module = fx.Provide(
	provideMailService,
)

func provideMailService(cfg *config.Config, log *logger.Logger) services.IMailService {
	if cfg.SMTP.Host == "" {
		return services.NewNopMailService()
	}
	return services.NewSMTPMailService(cfg.SMTP, log)
}
