package db_models

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubStatusIncomplete        SubscriptionStatus = "incomplete"
	SubStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubStatusTrialing          SubscriptionStatus = "trialing"
	SubStatusActive            SubscriptionStatus = "active"
	SubStatusPastDue           SubscriptionStatus = "past_due"
	SubStatusPaused            SubscriptionStatus = "paused"
	SubStatusCanceled          SubscriptionStatus = "canceled"
	SubStatusUnpaid            SubscriptionStatus = "unpaid"
)

// Terminal reports whether the row may never become active again.
// Reactivation after cancellation creates a new gateway subscription and a
// new local row; this row stays for invoice history and audit.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubStatusCanceled || s == SubStatusIncompleteExpired
}

// ActiveOrTrialing reports whether the row currently grants its tier.
func (s SubscriptionStatus) ActiveOrTrialing() bool {
	return s == SubStatusActive || s == SubStatusTrialing
}

// Subscription is one external subscription lifecycle. Rows are never hard
// deleted; cancellation is a status transition.
type Subscription struct {
	BaseModel
	AccountID uuid.UUID `gorm:"index;not null"`

	// Identities in the billing gateway, immutable once set.
	ProviderSubID      string `gorm:"uniqueIndex;not null"`
	ProviderCustomerID string `gorm:"index"`

	// The billing plan currently in force; the tier resolver maps it back
	// to a tier.
	ProviderPriceID string `gorm:"index"`

	Status SubscriptionStatus `gorm:"index"`

	// Billing cycle bounds, unix seconds. CurrentPeriodEnd doubles as
	// "access expires at" for scheduled cancellation and downgrade.
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64

	// Set when the subscription is scheduled to end without further charges.
	CancelAt   *int64
	CanceledAt *int64
	EndedAt    *int64

	// Captured once from the cancellation survey; reconciliation never
	// touches these columns.
	CancellationReason   *string
	CancellationFeedback *string

	// Pending, not-yet-effective intent (see SubscriptionIntent). Advisory
	// only: the gateway snapshot stays authoritative.
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Account Account `gorm:"foreignKey:AccountID"`
}

// Intent kinds carried in Subscription.Metadata.
const (
	IntentPendingDowngrade = "pending_downgrade"
	IntentPaused           = "paused"
	IntentDiscount         = "discount"
)

// SubscriptionIntent is the tagged variant stored in Metadata. Each
// orchestration path writes only the shape it owns.
type SubscriptionIntent struct {
	Kind          string `json:"kind"`
	NewTier       string `json:"new_tier,omitempty"`
	EffectiveDate int64  `json:"effective_date,omitempty"`
	ScheduleID    string `json:"schedule_id,omitempty"`
	ResumesAt     int64  `json:"resumes_at,omitempty"`
	CouponID      string `json:"coupon_id,omitempty"`
	AppliedAt     int64  `json:"applied_at,omitempty"`
}

// Intent decodes the metadata bag. Returns nil when no intent is recorded.
func (s *Subscription) Intent() *SubscriptionIntent {
	if len(s.Metadata) == 0 {
		return nil
	}
	var intent SubscriptionIntent
	if err := json.Unmarshal(s.Metadata, &intent); err != nil || intent.Kind == "" {
		return nil
	}
	return &intent
}

func (s *Subscription) SetIntent(intent *SubscriptionIntent) {
	if intent == nil {
		s.Metadata = datatypes.JSON([]byte(`{}`))
		return
	}
	raw, err := json.Marshal(intent)
	if err != nil {
		return
	}
	s.Metadata = datatypes.JSON(raw)
}
