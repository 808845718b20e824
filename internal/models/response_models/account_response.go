package response_models

import "github.com/google/uuid"

type AccountProfileResponse struct {
	ID           uuid.UUID             `json:"id"`
	Email        string                `json:"email"`
	DisplayName  string                `json:"display_name,omitempty"`
	Tier         string                `json:"tier"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}
