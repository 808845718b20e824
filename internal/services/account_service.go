package services

import (
	"context"

	"github.com/google/uuid"

	"arcanum/internal/models/db_models"
	"arcanum/internal/models/response_models"
	"arcanum/internal/repositories"
	"arcanum/pkg/logger"
	"arcanum/pkg/utils"
)

// AccountServiceInterface provisions and reads accounts. Identity itself is
// delegated to the identity provider; a row is created lazily on the first
// authenticated request with the token's subject as primary key.
type AccountServiceInterface interface {
	EnsureAccount(ctx context.Context, accountID uuid.UUID, email string) (*db_models.Account, error)
	GetProfile(ctx context.Context, accountID uuid.UUID) (*response_models.AccountProfileResponse, error)
}

type AccountService struct {
	accountRepo  repositories.IAccountRepository
	subRepo      repositories.ISubscriptionRepository
	entitlements EntitlementServiceInterface
	logger       *logger.Logger
}

func NewAccountService(
	accountRepo repositories.IAccountRepository,
	subRepo repositories.ISubscriptionRepository,
	entitlements EntitlementServiceInterface,
	log *logger.Logger,
) AccountServiceInterface {
	return &AccountService{
		accountRepo:  accountRepo,
		subRepo:      subRepo,
		entitlements: entitlements,
		logger:       log,
	}
}

func (a *AccountService) EnsureAccount(ctx context.Context, accountID uuid.UUID, email string) (*db_models.Account, error) {
	account, err := a.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account != nil {
		return account, nil
	}

	account = &db_models.Account{Email: email}
	account.ID = accountID
	if err := a.accountRepo.Insert(ctx, account); err != nil {
		// A concurrent first request may have won the insert.
		if existing, ferr := a.accountRepo.FindById(ctx, accountID); ferr == nil && existing != nil {
			return existing, nil
		}
		return nil, utils.ErrDatabaseError
	}
	a.logger.Infow("provisioned account", "account_id", accountID, "email", email)
	return account, nil
}

func (a *AccountService) GetProfile(ctx context.Context, accountID uuid.UUID) (*response_models.AccountProfileResponse, error) {
	account, err := a.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	tier, err := a.entitlements.CurrentTier(ctx, accountID)
	if err != nil {
		return nil, err
	}

	profile := &response_models.AccountProfileResponse{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Tier:        string(tier),
	}

	sub, err := a.subRepo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if sub != nil {
		profile.Subscription = subscriptionResponse(a.entitlements.Catalog(), sub)
	}
	return profile, nil
}
