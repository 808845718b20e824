package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/coupon"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/subscriptionschedule"

	"arcanum/pkg/config"
)

// Every gateway call is bounded; a timeout is a failure, never an
// ambiguous success. Recovery from a lost success runs through the
// webhook or sync path, not by retrying the mutating call.
const gatewayTimeout = 15 * time.Second

const (
	ProrationImmediate = "always_invoice"
	ProrationNone      = "none"
)

// CheckoutSession is the subset of the hosted checkout the product needs.
type CheckoutSession struct {
	ID  string
	URL string
}

// BillingGateway is the boundary to the payment provider. The orchestrator
// and reconciler depend on this interface only; tests substitute a fake.
type BillingGateway interface {
	CreateCustomer(ctx context.Context, email, accountID string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, accountID string, trialDays int64) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subID string) (*stripe.Subscription, error)
	// SwapPlan replaces the subscription's single plan item.
	SwapPlan(ctx context.Context, subID, newPriceID, prorationBehavior string) (*stripe.Subscription, error)
	// ScheduleDowngrade defers a plan change to the end of the current
	// billing period. The current plan stays in force until then; the
	// returned schedule id is the handle for releasing the change.
	ScheduleDowngrade(ctx context.Context, subID, newPriceID string) (string, error)
	// ReleaseSchedule detaches a schedule from its subscription, abandoning
	// any not-yet-effective phases.
	ReleaseSchedule(ctx context.Context, scheduleID string) error
	SetCancelAtPeriodEnd(ctx context.Context, subID string, cancel bool) (*stripe.Subscription, error)
	CancelNow(ctx context.Context, subID string) (*stripe.Subscription, error)
	Pause(ctx context.Context, subID string, resumesAt time.Time) (*stripe.Subscription, error)
	Resume(ctx context.Context, subID string) (*stripe.Subscription, error)
	// EnsureCoupon creates the fixed-id coupon if it does not exist yet.
	EnsureCoupon(ctx context.Context, couponID string, percentOff float64, durationMonths int64) error
	ApplyCoupon(ctx context.Context, subID, couponID string) error
	ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)
	ListInvoices(ctx context.Context, customerID string) ([]*stripe.Invoice, error)
}

type stripeGateway struct {
	cfg config.StripeConfig
}

// NewStripeGateway configures the global stripe client key and returns the
// gateway boundary.
func NewStripeGateway(cfg config.StripeConfig) BillingGateway {
	stripe.Key = cfg.APIKey
	return &stripeGateway{cfg: cfg}
}

func (g *stripeGateway) CreateCustomer(ctx context.Context, email, accountID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"account_id": accountID,
		},
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, customerID, priceID, accountID string, trialDays int64) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(g.cfg.SuccessURL),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		ClientReferenceID: stripe.String(accountID),
	}
	if trialDays > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(trialDays),
			Metadata: map[string]string{
				"account_id": accountID,
			},
		}
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *stripeGateway) GetSubscription(ctx context.Context, subID string) (*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subID, params)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (g *stripeGateway) SwapPlan(ctx context.Context, subID, newPriceID, prorationBehavior string) (*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := subscription.Get(subID, getParams)
	if err != nil {
		return nil, fmt.Errorf("get subscription before plan swap: %w", err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s has no plan item", subID)
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(newPriceID),
			},
		},
		ProrationBehavior: stripe.String(prorationBehavior),
	}
	params.Context = ctx

	updated, err := subscription.Update(subID, params)
	if err != nil {
		return nil, fmt.Errorf("swap plan: %w", err)
	}
	return updated, nil
}

func (g *stripeGateway) ScheduleDowngrade(ctx context.Context, subID, newPriceID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	// Attaching a schedule snapshots the subscription's current phase.
	createParams := &stripe.SubscriptionScheduleParams{
		FromSubscription: stripe.String(subID),
	}
	createParams.Context = ctx
	sched, err := subscriptionschedule.New(createParams)
	if err != nil {
		return "", fmt.Errorf("create subscription schedule: %w", err)
	}
	if len(sched.Phases) == 0 || len(sched.Phases[0].Items) == 0 || sched.Phases[0].Items[0].Price == nil {
		return "", fmt.Errorf("schedule %s has no current phase item", sched.ID)
	}

	// Phase one keeps the paid-for plan until the period boundary; phase
	// two starts the new plan there. Release afterwards so the subscription
	// renews on its own once the change is in effect.
	current := sched.Phases[0]
	updateParams := &stripe.SubscriptionScheduleParams{
		EndBehavior: stripe.String(string(stripe.SubscriptionScheduleEndBehaviorRelease)),
		Phases: []*stripe.SubscriptionSchedulePhaseParams{
			{
				Items: []*stripe.SubscriptionSchedulePhaseItemParams{
					{
						Price:    stripe.String(current.Items[0].Price.ID),
						Quantity: stripe.Int64(1),
					},
				},
				StartDate: stripe.Int64(current.StartDate),
				EndDate:   stripe.Int64(current.EndDate),
			},
			{
				Items: []*stripe.SubscriptionSchedulePhaseItemParams{
					{
						Price:    stripe.String(newPriceID),
						Quantity: stripe.Int64(1),
					},
				},
			},
		},
	}
	updateParams.Context = ctx

	if _, err := subscriptionschedule.Update(sched.ID, updateParams); err != nil {
		return "", fmt.Errorf("set downgrade phases: %w", err)
	}
	return sched.ID, nil
}

func (g *stripeGateway) ReleaseSchedule(ctx context.Context, scheduleID string) error {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.SubscriptionScheduleReleaseParams{}
	params.Context = ctx

	if _, err := subscriptionschedule.Release(scheduleID, params); err != nil {
		return fmt.Errorf("release subscription schedule: %w", err)
	}
	return nil
}

func (g *stripeGateway) SetCancelAtPeriodEnd(ctx context.Context, subID string, cancelAtPeriodEnd bool) (*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancelAtPeriodEnd),
	}
	params.Context = ctx

	sub, err := subscription.Update(subID, params)
	if err != nil {
		return nil, fmt.Errorf("set cancel at period end: %w", err)
	}
	return sub, nil
}

func (g *stripeGateway) CancelNow(ctx context.Context, subID string) (*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := subscription.Cancel(subID, params)
	if err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	return sub, nil
}

func (g *stripeGateway) Pause(ctx context.Context, subID string, resumesAt time.Time) (*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.SubscriptionParams{
		PauseCollection: &stripe.SubscriptionPauseCollectionParams{
			Behavior:  stripe.String("mark_uncollectible"),
			ResumesAt: stripe.Int64(resumesAt.Unix()),
		},
	}
	params.Context = ctx

	sub, err := subscription.Update(subID, params)
	if err != nil {
		return nil, fmt.Errorf("pause subscription: %w", err)
	}
	return sub, nil
}

func (g *stripeGateway) Resume(ctx context.Context, subID string) (*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	// Clearing pause_collection resumes billing.
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExtra("pause_collection", "")

	sub, err := subscription.Update(subID, params)
	if err != nil {
		return nil, fmt.Errorf("resume subscription: %w", err)
	}
	return sub, nil
}

func (g *stripeGateway) EnsureCoupon(ctx context.Context, couponID string, percentOff float64, durationMonths int64) error {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	getParams := &stripe.CouponParams{}
	getParams.Context = ctx
	_, err := coupon.Get(couponID, getParams)
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) || stripeErr.Code != stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("get coupon: %w", err)
	}

	params := &stripe.CouponParams{
		ID:               stripe.String(couponID),
		PercentOff:       stripe.Float64(percentOff),
		Duration:         stripe.String(string(stripe.CouponDurationRepeating)),
		DurationInMonths: stripe.Int64(durationMonths),
	}
	params.Context = ctx

	if _, err := coupon.New(params); err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

func (g *stripeGateway) ApplyCoupon(ctx context.Context, subID, couponID string) error {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.SubscriptionParams{
		Discounts: []*stripe.SubscriptionDiscountParams{
			{Coupon: stripe.String(couponID)},
		},
	}
	params.Context = ctx

	if _, err := subscription.Update(subID, params); err != nil {
		return fmt.Errorf("apply coupon: %w", err)
	}
	return nil
}

func (g *stripeGateway) ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx

	var subs []*stripe.Subscription
	iter := subscription.List(params)
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

func (g *stripeGateway) ListInvoices(ctx context.Context, customerID string) ([]*stripe.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	var invoices []*stripe.Invoice
	iter := invoice.List(params)
	for iter.Next() {
		invoices = append(invoices, iter.Invoice())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}
