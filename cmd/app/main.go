package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"arcanum/cmd/fx/account_fx"
	"arcanum/cmd/fx/billing_fx"
	"arcanum/cmd/fx/core_fx"
	"arcanum/cmd/fx/db_fx"
	"arcanum/cmd/fx/mail_fx"
	"arcanum/cmd/fx/reading_fx"
	"arcanum/internal/api/controllers"
	"arcanum/internal/infra"
	"arcanum/pkg/config"
	"arcanum/pkg/logger"
	"arcanum/pkg/middleware"
)

func main() {
	app := fx.New(
		core_fx.Module,
		db_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		billing_fx.Module,
		reading_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func ProvideRouter(
	cfg *config.Config,
	tierController *controllers.TierController,
	accountController *controllers.AccountController,
	billingController *controllers.BillingController,
	webhookController *controllers.WebhookController,
	readingController *controllers.ReadingController,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, cfg, tierController, accountController, billingController, webhookController, readingController)
	return r
}

func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	tierController *controllers.TierController,
	accountController *controllers.AccountController,
	billingController *controllers.BillingController,
	webhookController *controllers.WebhookController,
	readingController *controllers.ReadingController,
) {
	// Public surface: pricing page and the gateway webhook. The webhook's
	// credential is its signature, not a bearer token.
	r.GET("/tiers", tierController.ListTiers)
	r.POST("/webhooks/stripe", webhookController.HandleStripeWebhook)

	auth := r.Group("/", middleware.JWTAuthMiddleware([]byte(cfg.JWTSecret)))

	auth.GET("/account/me", accountController.GetProfile)

	billing := auth.Group("/billing")
	billing.POST("/checkout", billingController.CreateCheckout)
	billing.GET("/subscription", billingController.GetSubscription)
	billing.GET("/invoices", billingController.ListInvoices)
	billing.POST("/upgrade", billingController.Upgrade)
	billing.POST("/downgrade", billingController.ScheduleDowngrade)
	billing.DELETE("/downgrade", billingController.CancelScheduledDowngrade)
	billing.POST("/cancel", billingController.Cancel)
	billing.POST("/resume", billingController.Resume)
	billing.POST("/retention", billingController.ApplyRetention)
	billing.POST("/sync", billingController.Sync)

	auth.GET("/spreads", readingController.ListSpreads)
	auth.POST("/readings", readingController.Draw)
	auth.GET("/readings", readingController.History)
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config, db *gorm.DB, log *logger.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow("starting HTTP server", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			if err := srv.Shutdown(ctx); err != nil {
				log.Warnw("server shutdown", "error", err)
			}
			return infra.ClosePostgresql(db)
		},
	})
}
