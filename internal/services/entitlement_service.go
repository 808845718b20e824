package services

import (
	"context"

	"github.com/google/uuid"

	"arcanum/internal/repositories"
	"arcanum/pkg/tiers"
	"arcanum/pkg/utils"
)

// AccessResult is the structured outcome of an entitlement check. A denial
// is data, not an error, so callers can render an upgrade prompt.
type AccessResult struct {
	Allowed      bool
	CurrentTier  tiers.Tier
	RequiredTier tiers.Tier
}

type EntitlementServiceInterface interface {
	// CurrentTier derives the account's effective tier from local rows
	// only. It never calls the billing gateway.
	CurrentTier(ctx context.Context, accountID uuid.UUID) (tiers.Tier, error)
	CheckAccess(ctx context.Context, accountID uuid.UUID, feature tiers.Feature) (AccessResult, error)
	RequiredTier(feature tiers.Feature) (tiers.Tier, bool)
	Catalog() *tiers.Catalog
}

type EntitlementService struct {
	catalog *tiers.Catalog
	matrix  *tiers.Matrix
	subRepo repositories.ISubscriptionRepository
}

func NewEntitlementService(
	catalog *tiers.Catalog,
	matrix *tiers.Matrix,
	subRepo repositories.ISubscriptionRepository,
) EntitlementServiceInterface {
	return &EntitlementService{
		catalog: catalog,
		matrix:  matrix,
		subRepo: subRepo,
	}
}

func (e *EntitlementService) CurrentTier(ctx context.Context, accountID uuid.UUID) (tiers.Tier, error) {
	sub, err := e.subRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return tiers.TierFree, utils.ErrDatabaseError
	}
	if sub == nil {
		return tiers.TierFree, nil
	}
	return e.catalog.ResolveTier(sub.ProviderPriceID), nil
}

func (e *EntitlementService) CheckAccess(ctx context.Context, accountID uuid.UUID, feature tiers.Feature) (AccessResult, error) {
	required, ok := e.matrix.RequiredTier(feature)
	if !ok {
		return AccessResult{}, utils.ErrFeatureNotOffered
	}

	current, err := e.CurrentTier(ctx, accountID)
	if err != nil {
		return AccessResult{}, err
	}

	return AccessResult{
		Allowed:      e.matrix.CanAccess(current, feature),
		CurrentTier:  current,
		RequiredTier: required,
	}, nil
}

func (e *EntitlementService) RequiredTier(feature tiers.Feature) (tiers.Tier, bool) {
	return e.matrix.RequiredTier(feature)
}

func (e *EntitlementService) Catalog() *tiers.Catalog {
	return e.catalog
}
