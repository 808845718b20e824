package response_models

import "github.com/google/uuid"

type TierPlan struct {
	Tier       string   `json:"tier"`
	Name       string   `json:"name"`
	PriceMinor int64    `json:"price_minor"`
	Currency   string   `json:"currency"`
	TrialDays  int64    `json:"trial_days"`
	Features   []string `json:"features,omitempty"`
}

type CreateCheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type PendingIntentResponse struct {
	Kind          string `json:"kind"`
	NewTier       string `json:"new_tier,omitempty"`
	EffectiveDate int64  `json:"effective_date,omitempty"`
	ResumesAt     int64  `json:"resumes_at,omitempty"`
	CouponID      string `json:"coupon_id,omitempty"`
}

type SubscriptionResponse struct {
	ID                 uuid.UUID              `json:"id"`
	Tier               string                 `json:"tier"`
	Status             string                 `json:"status"`
	CurrentPeriodStart int64                  `json:"current_period_start"`
	CurrentPeriodEnd   int64                  `json:"current_period_end"`
	CancelAt           *int64                 `json:"cancel_at,omitempty"`
	CanceledAt         *int64                 `json:"canceled_at,omitempty"`
	PendingIntent      *PendingIntentResponse `json:"pending_intent,omitempty"`
}

type InvoiceResponse struct {
	ID               uuid.UUID `json:"id"`
	AmountMinor      int64     `json:"amount_minor"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	PeriodStart      int64     `json:"period_start"`
	PeriodEnd        int64     `json:"period_end"`
	PaidAt           *int64    `json:"paid_at,omitempty"`
	HostedInvoiceURL string    `json:"hosted_invoice_url,omitempty"`
	InvoicePDF       string    `json:"invoice_pdf,omitempty"`
}

type RetentionResponse struct {
	Action  string                `json:"action"`
	Applied bool                  `json:"applied"`
	Detail  *SubscriptionResponse `json:"subscription,omitempty"`
}

type AccessResponse struct {
	Allowed      bool   `json:"allowed"`
	CurrentTier  string `json:"current_tier"`
	RequiredTier string `json:"required_tier"`
}
