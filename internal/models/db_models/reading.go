package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Reading is one saved drawing. Retained only for tiers with the
// reading-history feature.
type Reading struct {
	BaseModel
	AccountID uuid.UUID `gorm:"index;not null"`

	SpreadID string `gorm:"index;not null"`
	Question string

	// Drawn cards with positions and reversal flags, serialized as JSON.
	Cards datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	// Best-effort AI interpretation; null when unavailable or not entitled.
	Interpretation *string

	Account Account `gorm:"foreignKey:AccountID"`
}
