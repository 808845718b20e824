package db_models

type Account struct {
	BaseModel
	Email       string `gorm:"uniqueIndex;not null"`
	DisplayName string

	// Identity in the billing gateway; empty until a first checkout.
	ProviderCustomerID string `gorm:"index"`
}
