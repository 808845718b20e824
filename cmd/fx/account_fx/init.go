package account_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"arcanum/internal/api/controllers"
	"arcanum/internal/repositories"
	"arcanum/internal/services"
	"arcanum/pkg/logger"
	"arcanum/pkg/tiers"
)

var Module = fx.Provide(
	provideAccountRepository,
	provideMatrix,
	provideEntitlementService,
	provideAccountService,
	provideAccountController,
	provideTierController,
)

func provideAccountRepository(db *gorm.DB) repositories.IAccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideMatrix() *tiers.Matrix {
	return tiers.DefaultMatrix()
}

func provideEntitlementService(
	catalog *tiers.Catalog,
	matrix *tiers.Matrix,
	subRepo repositories.ISubscriptionRepository,
) services.EntitlementServiceInterface {
	return services.NewEntitlementService(catalog, matrix, subRepo)
}

func provideAccountService(
	accountRepo repositories.IAccountRepository,
	subRepo repositories.ISubscriptionRepository,
	entitlements services.EntitlementServiceInterface,
	log *logger.Logger,
) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, subRepo, entitlements, log)
}

func provideAccountController(accountService services.AccountServiceInterface) *controllers.AccountController {
	return controllers.NewAccountController(accountService)
}

func provideTierController(catalog *tiers.Catalog, matrix *tiers.Matrix) *controllers.TierController {
	return controllers.NewTierController(catalog, matrix)
}
