package response_models

import (
	"github.com/google/uuid"

	"arcanum/pkg/tarot"
)

type SpreadResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Positions    []string `json:"positions"`
	RequiredTier string   `json:"required_tier"`
	Locked       bool     `json:"locked"`
}

type ReadingResponse struct {
	ID             uuid.UUID         `json:"id"`
	SpreadID       string            `json:"spread_id"`
	SpreadName     string            `json:"spread_name"`
	Question       string            `json:"question,omitempty"`
	Cards          []tarot.DrawnCard `json:"cards"`
	Interpretation string            `json:"interpretation,omitempty"`
	CreatedAt      int64             `json:"created_at"`
}

// DrawResult is either a reading or an upgrade prompt, never an error for
// a plain "not entitled".
type DrawResult struct {
	Access  AccessResponse   `json:"access"`
	Reading *ReadingResponse `json:"reading,omitempty"`
}
