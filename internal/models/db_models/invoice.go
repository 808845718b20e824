package db_models

import (
	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvStatusOpen InvoiceStatus = "open"
	InvStatusPaid InvoiceStatus = "paid"
	InvStatusVoid InvoiceStatus = "void"
)

// Invoice mirrors one billing-gateway invoice. Rows are append-only:
// reconciliation inserts, or moves open to paid/void. Paid and void rows
// are never mutated again.
type Invoice struct {
	BaseModel
	AccountID      uuid.UUID  `gorm:"index;not null"`
	SubscriptionID *uuid.UUID `gorm:"index"`

	ProviderInvoiceID string `gorm:"uniqueIndex;not null"`
	ProviderSubID     string `gorm:"index"`

	AmountMinor int64
	Currency    string        `gorm:"size:3"`
	Status      InvoiceStatus `gorm:"index"`

	PeriodStart int64
	PeriodEnd   int64
	PaidAt      *int64

	// Downloadable artifacts hosted by the gateway.
	HostedInvoiceURL string
	InvoicePDF       string

	Account Account `gorm:"foreignKey:AccountID"`
}
