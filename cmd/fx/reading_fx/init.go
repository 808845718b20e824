package reading_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"arcanum/internal/api/controllers"
	"arcanum/internal/repositories"
	"arcanum/internal/services"
	"arcanum/pkg/config"
	"arcanum/pkg/logger"
	"arcanum/pkg/utils"
)

var Module = fx.Provide(
	provideReadingRepository,
	provideInterpreter,
	provideReadingService,
	provideReadingController,
)

func provideReadingRepository(db *gorm.DB) repositories.IReadingRepository {
	return repositories.NewReadingRepository(db)
}

// provideInterpreter returns nil when no API key is configured; the reading
// service treats a nil interpreter as "no interpretations offered".
func provideInterpreter(cfg *config.Config) utils.Interpreter {
	return utils.NewOpenAIInterpreter(cfg.OpenAIAPIKey)
}

func provideReadingService(
	entitlements services.EntitlementServiceInterface,
	readingRepo repositories.IReadingRepository,
	interpreter utils.Interpreter,
	log *logger.Logger,
) services.ReadingServiceInterface {
	return services.NewReadingService(entitlements, readingRepo, interpreter, log)
}

func provideReadingController(
	readingService services.ReadingServiceInterface,
	accountService services.AccountServiceInterface,
) *controllers.ReadingController {
	return controllers.NewReadingController(readingService, accountService)
}
