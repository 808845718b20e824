package request_models

import "github.com/google/uuid"

type CreateCheckoutRequest struct {
	Tier string `json:"tier" binding:"required"`
}

type UpgradeRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" binding:"required"`
	Tier           string    `json:"tier" binding:"required"`
}

type DowngradeRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" binding:"required"`
	Tier           string    `json:"tier" binding:"required"`
}

type CancelDowngradeRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" binding:"required"`
}

type ResumeRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" binding:"required"`
}

type CancelRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" binding:"required"`
	Immediate      bool      `json:"immediate"`
	Reason         string    `json:"reason"`
	Feedback       string    `json:"feedback"`
}

// RetentionRequest is the cancellation-survey outcome. Action is one of
// pause, discount, downgrade, feature_request; Tier is required only for
// downgrade.
type RetentionRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" binding:"required"`
	Action         string    `json:"action" binding:"required"`
	Tier           string    `json:"tier"`
	Reason         string    `json:"reason"`
	Feedback       string    `json:"feedback"`
}
