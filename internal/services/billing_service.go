package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"arcanum/internal/models/db_models"
	"arcanum/internal/models/response_models"
	"arcanum/internal/repositories"
	"arcanum/pkg/analytics"
	"arcanum/pkg/logger"
	"arcanum/pkg/tiers"
	"arcanum/pkg/utils"
)

// Retention discount: fixed-id coupon so repeated offers reuse one coupon.
const (
	retentionCouponID     = "cancel-save-50"
	retentionCouponOff    = 50.0
	retentionCouponMonths = int64(3)
	retentionPauseLength  = 30 * 24 * time.Hour
)

// Retention actions offered by the cancellation survey.
const (
	RetentionActionPause          = "pause"
	RetentionActionDiscount       = "discount"
	RetentionActionDowngrade      = "downgrade"
	RetentionActionFeatureRequest = "feature_request"
)

type BillingServiceInterface interface {
	// InitiateSubscription starts a hosted checkout. No local row is
	// created; only the checkout.session.completed webhook (or a sync)
	// confirms the checkout and creates the row.
	InitiateSubscription(ctx context.Context, accountID uuid.UUID, tier tiers.Tier) (*response_models.CreateCheckoutResponse, error)
	Upgrade(ctx context.Context, accountID, subscriptionID uuid.UUID, newTier tiers.Tier) (*response_models.SubscriptionResponse, error)
	ScheduleDowngrade(ctx context.Context, accountID, subscriptionID uuid.UUID, newTier tiers.Tier) (*response_models.SubscriptionResponse, error)
	CancelScheduledDowngrade(ctx context.Context, accountID, subscriptionID uuid.UUID) (*response_models.SubscriptionResponse, error)
	Cancel(ctx context.Context, accountID, subscriptionID uuid.UUID, immediate bool, reason, feedback string) (*response_models.SubscriptionResponse, error)
	// Resume ends a retention pause before its resume date.
	Resume(ctx context.Context, accountID, subscriptionID uuid.UUID) (*response_models.SubscriptionResponse, error)
	ApplyRetention(ctx context.Context, accountID, subscriptionID uuid.UUID, action string, targetTier tiers.Tier, reason, feedback string) (*response_models.RetentionResponse, error)

	GetSubscription(ctx context.Context, accountID uuid.UUID) (*response_models.SubscriptionResponse, error)
	ListInvoices(ctx context.Context, accountID uuid.UUID) ([]response_models.InvoiceResponse, error)
}

type BillingService struct {
	catalog     *tiers.Catalog
	gateway     BillingGateway
	subRepo     repositories.ISubscriptionRepository
	accountRepo repositories.IAccountRepository
	invoiceRepo repositories.IInvoiceRepository
	mail        IMailService
	emitter     analytics.Emitter
	logger      *logger.Logger
}

func NewBillingService(
	catalog *tiers.Catalog,
	gateway BillingGateway,
	subRepo repositories.ISubscriptionRepository,
	accountRepo repositories.IAccountRepository,
	invoiceRepo repositories.IInvoiceRepository,
	mail IMailService,
	emitter analytics.Emitter,
	log *logger.Logger,
) BillingServiceInterface {
	return &BillingService{
		catalog:     catalog,
		gateway:     gateway,
		subRepo:     subRepo,
		accountRepo: accountRepo,
		invoiceRepo: invoiceRepo,
		mail:        mail,
		emitter:     emitter,
		logger:      log,
	}
}

// gatewayErr hides provider internals behind one typed error; detail goes
// to the log only.
func (b *BillingService) gatewayErr(op string, err error) error {
	b.logger.Errorw("billing gateway call failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s", utils.ErrGatewayUnavailable, op)
}

// loadOwned fetches the subscription and enforces ownership before any
// remote call. Not-owned reads as a generic forbidden, leaking nothing
// about the row's existence.
func (b *BillingService) loadOwned(ctx context.Context, accountID, subscriptionID uuid.UUID) (*db_models.Subscription, error) {
	sub, err := b.subRepo.FindById(ctx, subscriptionID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	if sub.AccountID != accountID {
		return nil, utils.ErrForbidden
	}
	return sub, nil
}

func (b *BillingService) InitiateSubscription(ctx context.Context, accountID uuid.UUID, tier tiers.Tier) (*response_models.CreateCheckoutResponse, error) {
	plan, ok := b.catalog.Plan(tier)
	if !ok || plan.PriceID == "" {
		return nil, utils.ErrTierUnavailable
	}

	// Checked locally before touching the gateway so a double-click can
	// never create an orphaned remote subscription.
	existing, err := b.subRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if existing != nil {
		return nil, utils.ErrDuplicateActiveSubscription
	}

	account, err := b.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	customerID := account.ProviderCustomerID
	if customerID == "" {
		customerID, err = b.gateway.CreateCustomer(ctx, account.Email, accountID.String())
		if err != nil {
			return nil, b.gatewayErr("create customer", err)
		}
		if err := b.accountRepo.SetProviderCustomerID(ctx, accountID, customerID); err != nil {
			return nil, utils.ErrDatabaseError
		}
	}

	sess, err := b.gateway.CreateCheckoutSession(ctx, customerID, plan.PriceID, accountID.String(), plan.TrialDays)
	if err != nil {
		return nil, b.gatewayErr("create checkout session", err)
	}

	b.emitter.Emit("subscription_checkout_started", map[string]interface{}{
		"account_id": accountID.String(),
		"tier":       string(tier),
	})

	return &response_models.CreateCheckoutResponse{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

func (b *BillingService) Upgrade(ctx context.Context, accountID, subscriptionID uuid.UUID, newTier tiers.Tier) (*response_models.SubscriptionResponse, error) {
	sub, err := b.loadOwned(ctx, accountID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() {
		b.logger.Errorw("upgrade attempted on terminal subscription",
			"subscription_id", subscriptionID, "status", sub.Status)
		return nil, utils.ErrIntegrityViolation
	}

	newPriceID, ok := b.catalog.PriceID(newTier)
	if !ok {
		return nil, utils.ErrTierUnavailable
	}
	currentTier := b.catalog.ResolveTier(sub.ProviderPriceID)
	if newTier.Order() <= currentTier.Order() {
		return nil, utils.ErrNotAnUpgrade
	}

	// Immediate proration: the user pays the difference now and gains
	// access now.
	if _, err := b.gateway.SwapPlan(ctx, sub.ProviderSubID, newPriceID, ProrationImmediate); err != nil {
		return nil, b.gatewayErr("swap plan", err)
	}

	// Optimistic local write so access reflects the upgrade before the
	// webhook lands. An upgrade supersedes any scheduled downgrade.
	sub.ProviderPriceID = newPriceID
	sub.SetIntent(nil)
	if err := b.subRepo.UpdatePlan(ctx, sub.ID, newPriceID, sub.Metadata); err != nil {
		return nil, utils.ErrDatabaseError
	}

	b.emitter.Emit("subscription_upgraded", map[string]interface{}{
		"account_id": accountID.String(),
		"from_tier":  string(currentTier),
		"to_tier":    string(newTier),
	})

	return subscriptionResponse(b.catalog, sub), nil
}

func (b *BillingService) ScheduleDowngrade(ctx context.Context, accountID, subscriptionID uuid.UUID, newTier tiers.Tier) (*response_models.SubscriptionResponse, error) {
	sub, err := b.loadOwned(ctx, accountID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() {
		b.logger.Errorw("downgrade attempted on terminal subscription",
			"subscription_id", subscriptionID, "status", sub.Status)
		return nil, utils.ErrIntegrityViolation
	}

	newPriceID, ok := b.catalog.PriceID(newTier)
	if !ok {
		return nil, utils.ErrTierUnavailable
	}
	currentTier := b.catalog.ResolveTier(sub.ProviderPriceID)
	if newTier.Order() >= currentTier.Order() {
		return nil, utils.ErrNotADowngrade
	}

	// The change is deferred on the gateway itself: the current plan runs
	// until period end, then the new plan starts. Nothing changes remotely
	// or locally before the boundary; the reconciler adopts the new plan
	// when the gateway reports it in force.
	scheduleID, err := b.gateway.ScheduleDowngrade(ctx, sub.ProviderSubID, newPriceID)
	if err != nil {
		return nil, b.gatewayErr("schedule downgrade", err)
	}

	sub.SetIntent(&db_models.SubscriptionIntent{
		Kind:          db_models.IntentPendingDowngrade,
		NewTier:       string(newTier),
		EffectiveDate: sub.CurrentPeriodEnd,
		ScheduleID:    scheduleID,
	})
	if err := b.subRepo.UpdateIntent(ctx, sub.ID, sub.Metadata); err != nil {
		return nil, utils.ErrDatabaseError
	}

	b.emitter.Emit("subscription_downgrade_scheduled", map[string]interface{}{
		"account_id": accountID.String(),
		"from_tier":  string(currentTier),
		"to_tier":    string(newTier),
	})

	return subscriptionResponse(b.catalog, sub), nil
}

func (b *BillingService) CancelScheduledDowngrade(ctx context.Context, accountID, subscriptionID uuid.UUID) (*response_models.SubscriptionResponse, error) {
	sub, err := b.loadOwned(ctx, accountID, subscriptionID)
	if err != nil {
		return nil, err
	}

	intent := sub.Intent()
	if intent == nil || intent.Kind != db_models.IntentPendingDowngrade {
		return nil, utils.ErrNoPendingDowngrade
	}

	// Releasing the schedule abandons the pending phase; the plan in force
	// simply keeps renewing.
	if err := b.gateway.ReleaseSchedule(ctx, intent.ScheduleID); err != nil {
		return nil, b.gatewayErr("cancel scheduled downgrade", err)
	}

	sub.SetIntent(nil)
	if err := b.subRepo.UpdateIntent(ctx, sub.ID, sub.Metadata); err != nil {
		return nil, utils.ErrDatabaseError
	}

	return subscriptionResponse(b.catalog, sub), nil
}

func (b *BillingService) Cancel(ctx context.Context, accountID, subscriptionID uuid.UUID, immediate bool, reason, feedback string) (*response_models.SubscriptionResponse, error) {
	sub, err := b.loadOwned(ctx, accountID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() {
		return nil, utils.ErrIntegrityViolation
	}

	// Feedback first, unconditionally: it survives a gateway failure and
	// is never overwritten later.
	if reason != "" || feedback != "" {
		if err := b.subRepo.RecordCancellationFeedback(ctx, sub.ID, reason, feedback); err != nil {
			b.logger.Warnw("failed to record cancellation feedback",
				"subscription_id", sub.ID, "error", err)
		}
	}

	now := time.Now().Unix()
	if immediate {
		if _, err := b.gateway.CancelNow(ctx, sub.ProviderSubID); err != nil {
			return nil, b.gatewayErr("cancel subscription", err)
		}
		if err := b.subRepo.MarkCanceled(ctx, sub.ID, now); err != nil {
			return nil, utils.ErrDatabaseError
		}
		sub.Status = db_models.SubStatusCanceled
		sub.CanceledAt = &now
	} else {
		if _, err := b.gateway.SetCancelAtPeriodEnd(ctx, sub.ProviderSubID, true); err != nil {
			return nil, b.gatewayErr("schedule cancellation", err)
		}
		// Status stays as-is: the user keeps access until period end.
		cancelAt := sub.CurrentPeriodEnd
		if err := b.subRepo.SetCancelAt(ctx, sub.ID, cancelAt); err != nil {
			return nil, utils.ErrDatabaseError
		}
		sub.CancelAt = &cancelAt
	}

	b.emitter.Emit("subscription_canceled", map[string]interface{}{
		"account_id": accountID.String(),
		"immediate":  immediate,
		"reason":     reason,
	})

	account, aerr := b.accountRepo.FindById(ctx, accountID)
	if aerr == nil && account != nil {
		b.mail.SendCancellationMail(account.Email, immediate, utils.FromUnixSeconds(sub.CurrentPeriodEnd))
	}

	return subscriptionResponse(b.catalog, sub), nil
}

func (b *BillingService) ApplyRetention(ctx context.Context, accountID, subscriptionID uuid.UUID, action string, targetTier tiers.Tier, reason, feedback string) (*response_models.RetentionResponse, error) {
	sub, err := b.loadOwned(ctx, accountID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() {
		b.logger.Errorw("retention attempted on terminal subscription",
			"subscription_id", subscriptionID, "status", sub.Status)
		return nil, utils.ErrIntegrityViolation
	}

	// The survey answer is captured before the retention action runs, so
	// feedback survives even when the gateway call fails afterward.
	if reason != "" || feedback != "" {
		if err := b.subRepo.RecordCancellationFeedback(ctx, sub.ID, reason, feedback); err != nil {
			b.logger.Warnw("failed to record retention feedback",
				"subscription_id", sub.ID, "error", err)
		}
	}

	switch action {
	case RetentionActionPause:
		resumesAt := time.Now().Add(retentionPauseLength)
		if _, err := b.gateway.Pause(ctx, sub.ProviderSubID, resumesAt); err != nil {
			return nil, b.gatewayErr("pause subscription", err)
		}
		sub.Status = db_models.SubStatusPaused
		sub.SetIntent(&db_models.SubscriptionIntent{
			Kind:      db_models.IntentPaused,
			ResumesAt: resumesAt.Unix(),
		})
		if err := b.subRepo.UpdateStatusAndIntent(ctx, sub.ID, sub.Status, sub.Metadata); err != nil {
			return nil, utils.ErrDatabaseError
		}

	case RetentionActionDiscount:
		if err := b.gateway.EnsureCoupon(ctx, retentionCouponID, retentionCouponOff, retentionCouponMonths); err != nil {
			return nil, b.gatewayErr("ensure retention coupon", err)
		}
		if err := b.gateway.ApplyCoupon(ctx, sub.ProviderSubID, retentionCouponID); err != nil {
			return nil, b.gatewayErr("apply retention coupon", err)
		}
		// Status and plan stay untouched; only the marker is recorded.
		sub.SetIntent(&db_models.SubscriptionIntent{
			Kind:      db_models.IntentDiscount,
			CouponID:  retentionCouponID,
			AppliedAt: time.Now().Unix(),
		})
		if err := b.subRepo.UpdateIntent(ctx, sub.ID, sub.Metadata); err != nil {
			return nil, utils.ErrDatabaseError
		}

	case RetentionActionDowngrade:
		newPriceID, ok := b.catalog.PriceID(targetTier)
		if !ok {
			return nil, utils.ErrTierUnavailable
		}
		currentTier := b.catalog.ResolveTier(sub.ProviderPriceID)
		if targetTier.Order() >= currentTier.Order() {
			return nil, utils.ErrNotADowngrade
		}
		if _, err := b.gateway.SwapPlan(ctx, sub.ProviderSubID, newPriceID, ProrationNone); err != nil {
			return nil, b.gatewayErr("retention downgrade", err)
		}
		// Unlike a user-initiated downgrade this one is already in effect,
		// so the plan id is written through, not recorded as pending.
		sub.ProviderPriceID = newPriceID
		sub.SetIntent(nil)
		if err := b.subRepo.UpdatePlan(ctx, sub.ID, newPriceID, sub.Metadata); err != nil {
			return nil, utils.ErrDatabaseError
		}

	case RetentionActionFeatureRequest:
		// Feedback is the whole action; it was captured above.

	default:
		return nil, utils.ErrInvalidRetentionAction
	}

	b.emitter.Emit("retention_action_applied", map[string]interface{}{
		"account_id": accountID.String(),
		"action":     action,
	})

	account, aerr := b.accountRepo.FindById(ctx, accountID)
	if aerr == nil && account != nil {
		b.mail.SendRetentionMail(account.Email, action)
	}

	return &response_models.RetentionResponse{
		Action:  action,
		Applied: true,
		Detail:  subscriptionResponse(b.catalog, sub),
	}, nil
}

func (b *BillingService) Resume(ctx context.Context, accountID, subscriptionID uuid.UUID) (*response_models.SubscriptionResponse, error) {
	sub, err := b.loadOwned(ctx, accountID, subscriptionID)
	if err != nil {
		return nil, err
	}
	intent := sub.Intent()
	if sub.Status != db_models.SubStatusPaused || intent == nil || intent.Kind != db_models.IntentPaused {
		return nil, utils.ErrNotPaused
	}

	if _, err := b.gateway.Resume(ctx, sub.ProviderSubID); err != nil {
		return nil, b.gatewayErr("resume subscription", err)
	}

	sub.Status = db_models.SubStatusActive
	sub.SetIntent(nil)
	if err := b.subRepo.UpdateStatusAndIntent(ctx, sub.ID, sub.Status, sub.Metadata); err != nil {
		return nil, utils.ErrDatabaseError
	}

	b.emitter.Emit("subscription_resumed", map[string]interface{}{
		"account_id": accountID.String(),
	})

	return subscriptionResponse(b.catalog, sub), nil
}

func (b *BillingService) GetSubscription(ctx context.Context, accountID uuid.UUID) (*response_models.SubscriptionResponse, error) {
	sub, err := b.subRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	return subscriptionResponse(b.catalog, sub), nil
}

func (b *BillingService) ListInvoices(ctx context.Context, accountID uuid.UUID) ([]response_models.InvoiceResponse, error) {
	invoices, err := b.invoiceRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return lo.Map(invoices, func(inv db_models.Invoice, _ int) response_models.InvoiceResponse {
		return response_models.InvoiceResponse{
			ID:               inv.ID,
			AmountMinor:      inv.AmountMinor,
			Currency:         inv.Currency,
			Status:           string(inv.Status),
			PeriodStart:      inv.PeriodStart,
			PeriodEnd:        inv.PeriodEnd,
			PaidAt:           inv.PaidAt,
			HostedInvoiceURL: inv.HostedInvoiceURL,
			InvoicePDF:       inv.InvoicePDF,
		}
	}), nil
}

// subscriptionResponse maps a row to its API shape, resolving the tier
// through the catalog.
func subscriptionResponse(catalog *tiers.Catalog, sub *db_models.Subscription) *response_models.SubscriptionResponse {
	resp := &response_models.SubscriptionResponse{
		ID:                 sub.ID,
		Tier:               string(catalog.ResolveTier(sub.ProviderPriceID)),
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAt:           sub.CancelAt,
		CanceledAt:         sub.CanceledAt,
	}
	if intent := sub.Intent(); intent != nil {
		resp.PendingIntent = &response_models.PendingIntentResponse{
			Kind:          intent.Kind,
			NewTier:       intent.NewTier,
			EffectiveDate: intent.EffectiveDate,
			ResumesAt:     intent.ResumesAt,
			CouponID:      intent.CouponID,
		}
	}
	return resp
}
