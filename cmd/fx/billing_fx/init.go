package billing_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"arcanum/internal/api/controllers"
	"arcanum/internal/repositories"
	"arcanum/internal/services"
	"arcanum/pkg/analytics"
	"arcanum/pkg/config"
	"arcanum/pkg/logger"
	"arcanum/pkg/memcache"
	"arcanum/pkg/tiers"
)

var Module = fx.Provide(
	provideCatalog,
	provideGateway,
	provideSubscriptionRepository,
	provideInvoiceRepository,
	provideBillingService,
	provideReconcileService,
	provideBillingController,
	provideWebhookController,
)

// provideCatalog binds the product's paid plans to the configured gateway
// price ids. A tier without a configured price id is simply not sellable
// in this environment.
func provideCatalog(cfg *config.Config) *tiers.Catalog {
	return tiers.NewCatalog([]tiers.PlanSpec{
		{
			Tier:       tiers.TierBasic,
			PriceID:    cfg.Stripe.PriceBasic,
			Name:       "Seeker",
			PriceMinor: 499,
			Currency:   "usd",
		},
		{
			Tier:       tiers.TierPro,
			PriceID:    cfg.Stripe.PricePro,
			Name:       "Mystic",
			PriceMinor: 999,
			Currency:   "usd",
			TrialDays:  7,
		},
		{
			Tier:       tiers.TierVIP,
			PriceID:    cfg.Stripe.PriceVIP,
			Name:       "Oracle",
			PriceMinor: 1999,
			Currency:   "usd",
			TrialDays:  7,
		},
	})
}

func provideGateway(cfg *config.Config) services.BillingGateway {
	return services.NewStripeGateway(cfg.Stripe)
}

func provideSubscriptionRepository(db *gorm.DB) repositories.ISubscriptionRepository {
	return repositories.NewSubscriptionRepository(db)
}

func provideInvoiceRepository(db *gorm.DB) repositories.IInvoiceRepository {
	return repositories.NewInvoiceRepository(db)
}

func provideBillingService(
	catalog *tiers.Catalog,
	gateway services.BillingGateway,
	subRepo repositories.ISubscriptionRepository,
	accountRepo repositories.IAccountRepository,
	invoiceRepo repositories.IInvoiceRepository,
	mail services.IMailService,
	emitter analytics.Emitter,
	log *logger.Logger,
) services.BillingServiceInterface {
	return services.NewBillingService(catalog, gateway, subRepo, accountRepo, invoiceRepo, mail, emitter, log)
}

func provideReconcileService(
	cfg *config.Config,
	catalog *tiers.Catalog,
	gateway services.BillingGateway,
	subRepo repositories.ISubscriptionRepository,
	accountRepo repositories.IAccountRepository,
	invoiceRepo repositories.IInvoiceRepository,
	processed memcache.ProcessedEventStore,
	emitter analytics.Emitter,
	log *logger.Logger,
) services.ReconcileServiceInterface {
	return services.NewReconcileService(cfg.Stripe, catalog, gateway, subRepo, accountRepo, invoiceRepo, processed, emitter, log)
}

func provideBillingController(
	billingService services.BillingServiceInterface,
	reconcileService services.ReconcileServiceInterface,
	accountService services.AccountServiceInterface,
) *controllers.BillingController {
	return controllers.NewBillingController(billingService, reconcileService, accountService)
}

func provideWebhookController(reconcileService services.ReconcileServiceInterface) *controllers.WebhookController {
	return controllers.NewWebhookController(reconcileService)
}
