package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/datatypes"

	"arcanum/internal/models/db_models"
	"arcanum/pkg/tiers"
)

// Price ids used across the service tests.
const (
	testPriceBasic = "price_basic_test"
	testPricePro   = "price_pro_test"
	testPriceVIP   = "price_vip_test"
)

func testCatalog() *tiers.Catalog {
	return tiers.NewCatalog([]tiers.PlanSpec{
		{Tier: tiers.TierBasic, PriceID: testPriceBasic, Name: "Seeker", PriceMinor: 499, Currency: "usd"},
		{Tier: tiers.TierPro, PriceID: testPricePro, Name: "Mystic", PriceMinor: 999, Currency: "usd", TrialDays: 7},
		{Tier: tiers.TierVIP, PriceID: testPriceVIP, Name: "Oracle", PriceMinor: 1999, Currency: "usd", TrialDays: 7},
	})
}

// =============================================================================
// FAKE REPOSITORIES (map-backed, mirroring the stores' semantics)
// =============================================================================

type fakeSubscriptionRepo struct {
	rows map[uuid.UUID]*db_models.Subscription
	err  error
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{rows: make(map[uuid.UUID]*db_models.Subscription)}
}

func (f *fakeSubscriptionRepo) put(sub *db_models.Subscription) *db_models.Subscription {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt == 0 {
		sub.CreatedAt = time.Now().Unix()
	}
	if len(sub.Metadata) == 0 {
		sub.Metadata = datatypes.JSON([]byte(`{}`))
	}
	cp := *sub
	f.rows[sub.ID] = &cp
	return sub
}

func (f *fakeSubscriptionRepo) Insert(_ context.Context, sub *db_models.Subscription) error {
	if f.err != nil {
		return f.err
	}
	f.put(sub)
	return nil
}

func (f *fakeSubscriptionRepo) FindById(_ context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeSubscriptionRepo) FindByProviderSubID(_ context.Context, providerSubID string) (*db_models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, sub := range f.rows {
		if sub.ProviderSubID == providerSubID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) FindActiveByAccount(_ context.Context, accountID uuid.UUID) (*db_models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matches []*db_models.Subscription
	for _, sub := range f.rows {
		if sub.AccountID == accountID && sub.Status.ActiveOrTrialing() {
			matches = append(matches, sub)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt > matches[j].CreatedAt
	})
	cp := *matches[0]
	return &cp, nil
}

func (f *fakeSubscriptionRepo) ListByAccount(_ context.Context, accountID uuid.UUID) ([]db_models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []db_models.Subscription
	for _, sub := range f.rows {
		if sub.AccountID == accountID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) UpdateSnapshotFields(_ context.Context, sub *db_models.Subscription) error {
	if f.err != nil {
		return f.err
	}
	row, ok := f.rows[sub.ID]
	if !ok {
		return nil
	}
	row.ProviderCustomerID = sub.ProviderCustomerID
	row.ProviderPriceID = sub.ProviderPriceID
	row.Status = sub.Status
	row.CurrentPeriodStart = sub.CurrentPeriodStart
	row.CurrentPeriodEnd = sub.CurrentPeriodEnd
	row.CancelAt = sub.CancelAt
	row.CanceledAt = sub.CanceledAt
	row.EndedAt = sub.EndedAt
	row.Metadata = sub.Metadata
	return nil
}

func (f *fakeSubscriptionRepo) UpdatePlan(_ context.Context, id uuid.UUID, priceID string, metadata datatypes.JSON) error {
	if f.err != nil {
		return f.err
	}
	if row, ok := f.rows[id]; ok {
		row.ProviderPriceID = priceID
		row.Metadata = metadata
	}
	return nil
}

func (f *fakeSubscriptionRepo) UpdateIntent(_ context.Context, id uuid.UUID, metadata datatypes.JSON) error {
	if f.err != nil {
		return f.err
	}
	if row, ok := f.rows[id]; ok {
		row.Metadata = metadata
	}
	return nil
}

func (f *fakeSubscriptionRepo) UpdateStatusAndIntent(_ context.Context, id uuid.UUID, status db_models.SubscriptionStatus, metadata datatypes.JSON) error {
	if f.err != nil {
		return f.err
	}
	if row, ok := f.rows[id]; ok {
		row.Status = status
		row.Metadata = metadata
	}
	return nil
}

func (f *fakeSubscriptionRepo) SetCancelAt(_ context.Context, id uuid.UUID, cancelAt int64) error {
	if f.err != nil {
		return f.err
	}
	if row, ok := f.rows[id]; ok {
		row.CancelAt = &cancelAt
	}
	return nil
}

func (f *fakeSubscriptionRepo) MarkCanceled(_ context.Context, id uuid.UUID, canceledAt int64) error {
	if f.err != nil {
		return f.err
	}
	if row, ok := f.rows[id]; ok {
		row.Status = db_models.SubStatusCanceled
		row.CanceledAt = &canceledAt
	}
	return nil
}

func (f *fakeSubscriptionRepo) RecordCancellationFeedback(_ context.Context, id uuid.UUID, reason, feedback string) error {
	if f.err != nil {
		return f.err
	}
	row, ok := f.rows[id]
	if !ok {
		return nil
	}
	if row.CancellationReason == nil && reason != "" {
		row.CancellationReason = &reason
	}
	if row.CancellationFeedback == nil && feedback != "" {
		row.CancellationFeedback = &feedback
	}
	return nil
}

type fakeAccountRepo struct {
	rows map[uuid.UUID]*db_models.Account
	err  error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{rows: make(map[uuid.UUID]*db_models.Account)}
}

func (f *fakeAccountRepo) put(acct *db_models.Account) *db_models.Account {
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	cp := *acct
	f.rows[acct.ID] = &cp
	return acct
}

func (f *fakeAccountRepo) Insert(_ context.Context, account *db_models.Account) error {
	if f.err != nil {
		return f.err
	}
	f.put(account)
	return nil
}

func (f *fakeAccountRepo) FindById(_ context.Context, id uuid.UUID) (*db_models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	acct, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *acct
	return &cp, nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*db_models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, acct := range f.rows {
		if acct.Email == email {
			cp := *acct
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) FindByProviderCustomerID(_ context.Context, customerID string) (*db_models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, acct := range f.rows {
		if acct.ProviderCustomerID == customerID {
			cp := *acct
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) SetProviderCustomerID(_ context.Context, id uuid.UUID, customerID string) error {
	if f.err != nil {
		return f.err
	}
	if acct, ok := f.rows[id]; ok {
		acct.ProviderCustomerID = customerID
	}
	return nil
}

type fakeInvoiceRepo struct {
	rows map[string]*db_models.Invoice
	err  error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{rows: make(map[string]*db_models.Invoice)}
}

func (f *fakeInvoiceRepo) FindByProviderInvoiceID(_ context.Context, providerInvoiceID string) (*db_models.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	inv, ok := f.rows[providerInvoiceID]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceRepo) ListByAccount(_ context.Context, accountID uuid.UUID) ([]db_models.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []db_models.Invoice
	for _, inv := range f.rows {
		if inv.AccountID == accountID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) Upsert(_ context.Context, inv *db_models.Invoice) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.rows[inv.ProviderInvoiceID]
	if !ok {
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		cp := *inv
		f.rows[inv.ProviderInvoiceID] = &cp
		return nil
	}
	// Terminal invoices stay frozen.
	if existing.Status != db_models.InvStatusOpen {
		return nil
	}
	inv.ID = existing.ID
	cp := *inv
	f.rows[inv.ProviderInvoiceID] = &cp
	return nil
}

type fakeReadingRepo struct {
	rows []db_models.Reading
	err  error
}

func (f *fakeReadingRepo) Insert(_ context.Context, reading *db_models.Reading) error {
	if f.err != nil {
		return f.err
	}
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	f.rows = append(f.rows, *reading)
	return nil
}

func (f *fakeReadingRepo) ListByAccount(_ context.Context, accountID uuid.UUID, limit int) ([]db_models.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []db_models.Reading
	for _, r := range f.rows {
		if r.AccountID == accountID {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// =============================================================================
// FAKE BILLING GATEWAY (scripted results, recorded calls)
// =============================================================================

type swapCall struct {
	subID     string
	priceID   string
	proration string
}

type pauseCall struct {
	subID     string
	resumesAt time.Time
}

type scheduleCall struct {
	subID   string
	priceID string
}

type fakeGateway struct {
	createCustomerResult string
	createCustomerErr    error

	checkoutResult *CheckoutSession
	checkoutErr    error

	getSubscriptionResult *stripe.Subscription
	getSubscriptionErr    error

	swapErr            error
	scheduleResult     string
	scheduleErr        error
	releaseErr         error
	resumeErr          error
	cancelAtErr        error
	cancelNowErr       error
	pauseErr           error
	ensureCouponErr    error
	applyCouponErr     error
	listSubsResult     []*stripe.Subscription
	listSubsErr        error
	listInvoicesResult []*stripe.Invoice
	listInvoicesErr    error

	createCustomerCalls int
	checkoutCalls       int
	swapCalls           []swapCall
	scheduleCalls       []scheduleCall
	releaseCalls        []string
	resumeCalls         []string
	cancelAtCalls       []string
	cancelNowCalls      []string
	pauseCalls          []pauseCall
	ensureCouponCalls   []string
	applyCouponCalls    []string
}

func (f *fakeGateway) CreateCustomer(_ context.Context, email, accountID string) (string, error) {
	f.createCustomerCalls++
	if f.createCustomerErr != nil {
		return "", f.createCustomerErr
	}
	if f.createCustomerResult != "" {
		return f.createCustomerResult, nil
	}
	return "cus_test123", nil
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, customerID, priceID, accountID string, trialDays int64) (*CheckoutSession, error) {
	f.checkoutCalls++
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	if f.checkoutResult != nil {
		return f.checkoutResult, nil
	}
	return &CheckoutSession{ID: "cs_test123", URL: "https://checkout.test/cs_test123"}, nil
}

func (f *fakeGateway) GetSubscription(_ context.Context, subID string) (*stripe.Subscription, error) {
	if f.getSubscriptionErr != nil {
		return nil, f.getSubscriptionErr
	}
	return f.getSubscriptionResult, nil
}

func (f *fakeGateway) SwapPlan(_ context.Context, subID, newPriceID, prorationBehavior string) (*stripe.Subscription, error) {
	f.swapCalls = append(f.swapCalls, swapCall{subID: subID, priceID: newPriceID, proration: prorationBehavior})
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	return &stripe.Subscription{ID: subID}, nil
}

func (f *fakeGateway) ScheduleDowngrade(_ context.Context, subID, newPriceID string) (string, error) {
	f.scheduleCalls = append(f.scheduleCalls, scheduleCall{subID: subID, priceID: newPriceID})
	if f.scheduleErr != nil {
		return "", f.scheduleErr
	}
	if f.scheduleResult != "" {
		return f.scheduleResult, nil
	}
	return "sub_sched_test123", nil
}

func (f *fakeGateway) ReleaseSchedule(_ context.Context, scheduleID string) error {
	f.releaseCalls = append(f.releaseCalls, scheduleID)
	return f.releaseErr
}

func (f *fakeGateway) SetCancelAtPeriodEnd(_ context.Context, subID string, cancel bool) (*stripe.Subscription, error) {
	f.cancelAtCalls = append(f.cancelAtCalls, subID)
	if f.cancelAtErr != nil {
		return nil, f.cancelAtErr
	}
	return &stripe.Subscription{ID: subID, CancelAtPeriodEnd: cancel}, nil
}

func (f *fakeGateway) CancelNow(_ context.Context, subID string) (*stripe.Subscription, error) {
	f.cancelNowCalls = append(f.cancelNowCalls, subID)
	if f.cancelNowErr != nil {
		return nil, f.cancelNowErr
	}
	return &stripe.Subscription{ID: subID, Status: stripe.SubscriptionStatusCanceled}, nil
}

func (f *fakeGateway) Pause(_ context.Context, subID string, resumesAt time.Time) (*stripe.Subscription, error) {
	f.pauseCalls = append(f.pauseCalls, pauseCall{subID: subID, resumesAt: resumesAt})
	if f.pauseErr != nil {
		return nil, f.pauseErr
	}
	return &stripe.Subscription{ID: subID}, nil
}

func (f *fakeGateway) Resume(_ context.Context, subID string) (*stripe.Subscription, error) {
	f.resumeCalls = append(f.resumeCalls, subID)
	if f.resumeErr != nil {
		return nil, f.resumeErr
	}
	return &stripe.Subscription{ID: subID}, nil
}

func (f *fakeGateway) EnsureCoupon(_ context.Context, couponID string, percentOff float64, durationMonths int64) error {
	f.ensureCouponCalls = append(f.ensureCouponCalls, couponID)
	return f.ensureCouponErr
}

func (f *fakeGateway) ApplyCoupon(_ context.Context, subID, couponID string) error {
	f.applyCouponCalls = append(f.applyCouponCalls, couponID)
	return f.applyCouponErr
}

func (f *fakeGateway) ListSubscriptions(_ context.Context, customerID string) ([]*stripe.Subscription, error) {
	if f.listSubsErr != nil {
		return nil, f.listSubsErr
	}
	return f.listSubsResult, nil
}

func (f *fakeGateway) ListInvoices(_ context.Context, customerID string) ([]*stripe.Invoice, error) {
	if f.listInvoicesErr != nil {
		return nil, f.listInvoicesErr
	}
	return f.listInvoicesResult, nil
}

// =============================================================================
// FAKE MAIL
// =============================================================================

type fakeMail struct {
	cancellations []string
	retentions    []string
}

func (f *fakeMail) SendCancellationMail(to string, immediate bool, accessUntil time.Time) {
	f.cancellations = append(f.cancellations, to)
}

func (f *fakeMail) SendRetentionMail(to string, action string) {
	f.retentions = append(f.retentions, action)
}

// stripeSubscription builds the provider snapshot shape the reconciler
// consumes: single item carrying price and period bounds.
func stripeSubscription(subID, customerID, priceID string, status stripe.SubscriptionStatus, periodStart, periodEnd int64) *stripe.Subscription {
	return &stripe.Subscription{
		ID:       subID,
		Status:   status,
		Customer: &stripe.Customer{ID: customerID},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{
					Price:              &stripe.Price{ID: priceID},
					CurrentPeriodStart: periodStart,
					CurrentPeriodEnd:   periodEnd,
				},
			},
		},
	}
}
