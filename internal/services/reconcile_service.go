package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"arcanum/internal/models/db_models"
	"arcanum/internal/models/response_models"
	"arcanum/internal/repositories"
	"arcanum/pkg/analytics"
	"arcanum/pkg/config"
	"arcanum/pkg/logger"
	"arcanum/pkg/memcache"
	"arcanum/pkg/tiers"
	"arcanum/pkg/utils"
)

// Events already handled within this window only suppress duplicate
// analytics. State writes are idempotent on their own.
const processedEventTTL = 24 * time.Hour

type ReconcileServiceInterface interface {
	// HandleWebhook verifies the payload signature and applies the event.
	// Only a signature failure is returned as an error; any failure after
	// verification is logged and swallowed so the provider does not retry
	// into the same poison event forever.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// SyncFromGateway pulls the account's subscriptions and invoices from
	// the gateway and applies the same snapshot routine the webhook path
	// uses. Safe to call arbitrarily often.
	SyncFromGateway(ctx context.Context, accountID uuid.UUID) (*response_models.SubscriptionResponse, error)
}

type ReconcileService struct {
	cfg         config.StripeConfig
	catalog     *tiers.Catalog
	gateway     BillingGateway
	subRepo     repositories.ISubscriptionRepository
	accountRepo repositories.IAccountRepository
	invoiceRepo repositories.IInvoiceRepository
	processed   memcache.ProcessedEventStore
	emitter     analytics.Emitter
	logger      *logger.Logger
}

func NewReconcileService(
	cfg config.StripeConfig,
	catalog *tiers.Catalog,
	gateway BillingGateway,
	subRepo repositories.ISubscriptionRepository,
	accountRepo repositories.IAccountRepository,
	invoiceRepo repositories.IInvoiceRepository,
	processed memcache.ProcessedEventStore,
	emitter analytics.Emitter,
	log *logger.Logger,
) ReconcileServiceInterface {
	return &ReconcileService{
		cfg:         cfg,
		catalog:     catalog,
		gateway:     gateway,
		subRepo:     subRepo,
		accountRepo: accountRepo,
		invoiceRepo: invoiceRepo,
		processed:   processed,
		emitter:     emitter,
		logger:      log,
	}
}

func (r *ReconcileService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, r.cfg.WebhookSecret)
	if err != nil {
		r.logger.Warnw("webhook signature rejected", "error", err)
		return utils.ErrWebhookSignature
	}

	firstDelivery := r.processed.MarkProcessed(event.ID, processedEventTTL)

	if err := r.dispatch(ctx, &event); err != nil {
		r.logger.Errorw("webhook event handling failed",
			"event_id", event.ID, "event_type", event.Type, "error", err)
		return nil
	}

	if firstDelivery {
		r.emitter.Emit("webhook_event_processed", map[string]interface{}{
			"event_type": string(event.Type),
		})
	}
	return nil
}

func (r *ReconcileService) dispatch(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return r.handleCheckoutCompleted(ctx, &sess)

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return r.applySubscriptionSnapshot(ctx, &sub, false)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return r.handleSubscriptionDeleted(ctx, &sub)

	case "invoice.paid", "invoice.payment_failed", "invoice.voided":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		return r.applyInvoiceSnapshot(ctx, &inv)

	case "customer.created", "customer.updated":
		var cust stripe.Customer
		if err := json.Unmarshal(event.Data.Raw, &cust); err != nil {
			return fmt.Errorf("decode customer: %w", err)
		}
		return r.handleCustomerEvent(ctx, &cust)

	case "customer.deleted":
		var cust stripe.Customer
		if err := json.Unmarshal(event.Data.Raw, &cust); err != nil {
			return fmt.Errorf("decode customer: %w", err)
		}
		return r.handleCustomerDeleted(ctx, &cust)

	default:
		// Unknown event types are acked so the provider stops retrying.
		r.logger.Infow("ignoring webhook event", "event_type", event.Type)
		return nil
	}
}

// handleCheckoutCompleted is the single path that turns a finished checkout
// into a brand-new local row. The session object carries only a thin
// subscription reference, so the full snapshot is fetched before applying.
func (r *ReconcileService) handleCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.Subscription == nil || sess.Subscription.ID == "" {
		r.logger.Infow("checkout session without subscription, skipping", "session_id", sess.ID)
		return nil
	}

	sub, err := r.gateway.GetSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", sess.Subscription.ID, err)
	}
	if err := r.applySubscriptionSnapshot(ctx, sub, true); err != nil {
		return err
	}

	if acct := r.accountForCustomer(ctx, customerID(sub)); acct != nil {
		r.emitter.Emit("subscription_started", map[string]interface{}{
			"account_id": acct.ID.String(),
			"tier":       string(r.catalog.ResolveTier(priceIDOf(sub))),
		})
	}
	return nil
}

func (r *ReconcileService) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	local, err := r.subRepo.FindByProviderSubID(ctx, sub.ID)
	if err != nil {
		return err
	}
	if local == nil {
		r.logger.Infow("deletion event for unknown subscription", "provider_sub_id", sub.ID)
		return nil
	}
	if local.Status == db_models.SubStatusCanceled {
		return nil
	}

	endedAt := sub.EndedAt
	if endedAt == 0 {
		endedAt = time.Now().Unix()
	}
	local.Status = db_models.SubStatusCanceled
	local.EndedAt = &endedAt
	if local.CanceledAt == nil {
		canceledAt := endedAt
		if sub.CanceledAt != 0 {
			canceledAt = sub.CanceledAt
		}
		local.CanceledAt = &canceledAt
	}
	local.SetIntent(nil)
	return r.subRepo.UpdateSnapshotFields(ctx, local)
}

// statusFromStripe maps provider lifecycle states onto the local set.
// Unmapped states degrade to incomplete, which grants no access.
func statusFromStripe(sub *stripe.Subscription) db_models.SubscriptionStatus {
	if sub.PauseCollection != nil && sub.PauseCollection.Behavior != "" {
		return db_models.SubStatusPaused
	}
	switch sub.Status {
	case stripe.SubscriptionStatusActive:
		return db_models.SubStatusActive
	case stripe.SubscriptionStatusTrialing:
		return db_models.SubStatusTrialing
	case stripe.SubscriptionStatusPastDue:
		return db_models.SubStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return db_models.SubStatusCanceled
	case stripe.SubscriptionStatusUnpaid:
		return db_models.SubStatusUnpaid
	case stripe.SubscriptionStatusIncomplete:
		return db_models.SubStatusIncomplete
	case stripe.SubscriptionStatusIncompleteExpired:
		return db_models.SubStatusIncompleteExpired
	case stripe.SubscriptionStatusPaused:
		return db_models.SubStatusPaused
	default:
		return db_models.SubStatusIncomplete
	}
}

// priceIDOf reads the plan from the subscription's single item.
func priceIDOf(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	item := sub.Items.Data[0]
	if item.Price == nil {
		return ""
	}
	return item.Price.ID
}

func customerID(sub *stripe.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

func (r *ReconcileService) accountForCustomer(ctx context.Context, providerCustomerID string) *db_models.Account {
	if providerCustomerID == "" {
		return nil
	}
	acct, err := r.accountRepo.FindByProviderCustomerID(ctx, providerCustomerID)
	if err != nil {
		r.logger.Errorw("account lookup by customer failed",
			"provider_customer_id", providerCustomerID, "error", err)
		return nil
	}
	return acct
}

// applySubscriptionSnapshot is the shared last-write-wins upsert both the
// webhook path and the on-demand sync run through. allowCreate limits row
// creation to checkout completion and sync; mid-life events for a row the
// store has never seen are skipped until one of those arrives.
func (r *ReconcileService) applySubscriptionSnapshot(ctx context.Context, sub *stripe.Subscription, allowCreate bool) error {
	local, err := r.subRepo.FindByProviderSubID(ctx, sub.ID)
	if err != nil {
		return err
	}

	newStatus := statusFromStripe(sub)

	if local == nil {
		if !allowCreate {
			r.logger.Infow("snapshot for unknown subscription, awaiting checkout confirmation",
				"provider_sub_id", sub.ID)
			return nil
		}
		acct := r.accountForCustomer(ctx, customerID(sub))
		if acct == nil {
			return fmt.Errorf("no account for customer %s", customerID(sub))
		}
		row := &db_models.Subscription{
			AccountID:          acct.ID,
			ProviderSubID:      sub.ID,
			ProviderCustomerID: customerID(sub),
		}
		r.fillFromSnapshot(row, sub, newStatus)
		return r.subRepo.Insert(ctx, row)
	}

	// A canceled row never becomes active again. A fresh subscription gets
	// a fresh row, so this transition can only be replayed stale data.
	if local.Status == db_models.SubStatusCanceled && newStatus.ActiveOrTrialing() {
		r.logger.Errorw("refusing canceled to active transition",
			"provider_sub_id", sub.ID, "incoming_status", newStatus)
		return utils.ErrIntegrityViolation
	}

	r.fillFromSnapshot(local, sub, newStatus)
	return r.subRepo.UpdateSnapshotFields(ctx, local)
}

// fillFromSnapshot overwrites the reconciler-owned columns from the
// provider's full snapshot. Survey feedback columns are never touched.
func (r *ReconcileService) fillFromSnapshot(local *db_models.Subscription, sub *stripe.Subscription, status db_models.SubscriptionStatus) {
	if cid := customerID(sub); cid != "" {
		local.ProviderCustomerID = cid
	}
	local.Status = status

	if price := priceIDOf(sub); price != "" {
		// A pending downgrade is cleared once the gateway reports the
		// target plan in force; the snapshot price then becomes the truth.
		if intent := local.Intent(); intent != nil && intent.Kind == db_models.IntentPendingDowngrade {
			if r.catalog.ResolveTier(price) == tiers.Tier(intent.NewTier) {
				local.SetIntent(nil)
			}
		}
		local.ProviderPriceID = price
	}

	// Period bounds live on the subscription item.
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		local.CurrentPeriodStart = sub.Items.Data[0].CurrentPeriodStart
		local.CurrentPeriodEnd = sub.Items.Data[0].CurrentPeriodEnd
	}

	if sub.CancelAtPeriodEnd {
		cancelAt := sub.CancelAt
		if cancelAt == 0 {
			cancelAt = local.CurrentPeriodEnd
		}
		local.CancelAt = &cancelAt
	} else if sub.CancelAt != 0 {
		cancelAt := sub.CancelAt
		local.CancelAt = &cancelAt
	} else {
		local.CancelAt = nil
	}

	if sub.CanceledAt != 0 {
		canceledAt := sub.CanceledAt
		local.CanceledAt = &canceledAt
	}
	if sub.EndedAt != 0 {
		endedAt := sub.EndedAt
		local.EndedAt = &endedAt
	}

	// A pause that ended on the provider side clears the paused marker.
	if intent := local.Intent(); intent != nil && intent.Kind == db_models.IntentPaused && sub.PauseCollection == nil {
		local.SetIntent(nil)
	}
}

func (r *ReconcileService) applyInvoiceSnapshot(ctx context.Context, inv *stripe.Invoice) error {
	if inv.Customer == nil {
		return nil
	}
	acct := r.accountForCustomer(ctx, inv.Customer.ID)
	if acct == nil {
		r.logger.Infow("invoice for unknown customer", "provider_invoice_id", inv.ID)
		return nil
	}

	row := &db_models.Invoice{
		AccountID:         acct.ID,
		ProviderInvoiceID: inv.ID,
		AmountMinor:       inv.AmountDue,
		Currency:          string(inv.Currency),
		Status:            invoiceStatusFromStripe(inv.Status),
		PeriodStart:       inv.PeriodStart,
		PeriodEnd:         inv.PeriodEnd,
		HostedInvoiceURL:  inv.HostedInvoiceURL,
		InvoicePDF:        inv.InvoicePDF,
	}
	if inv.AmountPaid > 0 {
		row.AmountMinor = inv.AmountPaid
	}
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt != 0 {
		paidAt := inv.StatusTransitions.PaidAt
		row.PaidAt = &paidAt
	}
	if subID := invoiceSubscriptionID(inv); subID != "" {
		row.ProviderSubID = subID
		if localSub, err := r.subRepo.FindByProviderSubID(ctx, subID); err == nil && localSub != nil {
			row.SubscriptionID = &localSub.ID
		}
	}

	return r.invoiceRepo.Upsert(ctx, row)
}

func invoiceStatusFromStripe(status stripe.InvoiceStatus) db_models.InvoiceStatus {
	switch status {
	case stripe.InvoiceStatusPaid:
		return db_models.InvStatusPaid
	case stripe.InvoiceStatusVoid, stripe.InvoiceStatusUncollectible:
		return db_models.InvStatusVoid
	default:
		return db_models.InvStatusOpen
	}
}

// invoiceSubscriptionID digs the subscription reference out of the invoice.
// In the current API shape it hangs off the invoice parent.
func invoiceSubscriptionID(inv *stripe.Invoice) string {
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		return inv.Parent.SubscriptionDetails.Subscription.ID
	}
	return ""
}

func (r *ReconcileService) handleCustomerEvent(ctx context.Context, cust *stripe.Customer) error {
	if cust.Email == "" {
		return nil
	}
	acct, err := r.accountRepo.FindByEmail(ctx, cust.Email)
	if err != nil {
		return err
	}
	if acct == nil || acct.ProviderCustomerID == cust.ID {
		return nil
	}
	if acct.ProviderCustomerID != "" {
		r.logger.Warnw("account already linked to a different customer",
			"account_id", acct.ID, "existing", acct.ProviderCustomerID, "incoming", cust.ID)
		return nil
	}
	return r.accountRepo.SetProviderCustomerID(ctx, acct.ID, cust.ID)
}

// handleCustomerDeleted unlinks the account from a customer that no longer
// exists. The next checkout provisions a fresh one.
func (r *ReconcileService) handleCustomerDeleted(ctx context.Context, cust *stripe.Customer) error {
	acct, err := r.accountRepo.FindByProviderCustomerID(ctx, cust.ID)
	if err != nil {
		return err
	}
	if acct == nil {
		return nil
	}
	return r.accountRepo.SetProviderCustomerID(ctx, acct.ID, "")
}

func (r *ReconcileService) SyncFromGateway(ctx context.Context, accountID uuid.UUID) (*response_models.SubscriptionResponse, error) {
	account, err := r.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	if account.ProviderCustomerID == "" {
		// Never checked out; nothing remote to reconcile against.
		return nil, utils.ErrSubscriptionNotFound
	}

	subs, err := r.gateway.ListSubscriptions(ctx, account.ProviderCustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list subscriptions", utils.ErrGatewayUnavailable)
	}
	for _, sub := range subs {
		if err := r.applySubscriptionSnapshot(ctx, sub, true); err != nil {
			r.logger.Errorw("sync snapshot failed",
				"provider_sub_id", sub.ID, "error", err)
		}
	}

	invoices, err := r.gateway.ListInvoices(ctx, account.ProviderCustomerID)
	if err != nil {
		// Subscription state is already reconciled; invoice history can
		// catch up on the next sync or webhook.
		r.logger.Warnw("sync invoice listing failed", "account_id", accountID, "error", err)
	} else {
		for _, inv := range invoices {
			if err := r.applyInvoiceSnapshot(ctx, inv); err != nil {
				r.logger.Errorw("sync invoice upsert failed",
					"provider_invoice_id", inv.ID, "error", err)
			}
		}
	}

	current, err := r.subRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if current == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	return subscriptionResponse(r.catalog, current), nil
}
