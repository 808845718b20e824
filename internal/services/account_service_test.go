package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcanum/internal/models/db_models"
	"arcanum/pkg/logger"
	"arcanum/pkg/tiers"
	"arcanum/pkg/utils"
)

func newAccountFixture() (*fakeAccountRepo, *fakeSubscriptionRepo, AccountServiceInterface) {
	accounts := newFakeAccountRepo()
	subs := newFakeSubscriptionRepo()
	entitlements := NewEntitlementService(testCatalog(), tiers.DefaultMatrix(), subs)
	svc := NewAccountService(accounts, subs, entitlements, logger.NewNop())
	return accounts, subs, svc
}

func TestEnsureAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions on first sight with the token subject as id", func(t *testing.T) {
		accounts, _, svc := newAccountFixture()
		id := uuid.New()

		acct, err := svc.EnsureAccount(ctx, id, "seeker@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, acct.ID)

		stored, _ := accounts.FindById(ctx, id)
		require.NotNil(t, stored)
		assert.Equal(t, "seeker@example.com", stored.Email)
	})

	t.Run("is idempotent", func(t *testing.T) {
		accounts, _, svc := newAccountFixture()
		id := uuid.New()

		first, err := svc.EnsureAccount(ctx, id, "seeker@example.com")
		require.NoError(t, err)
		second, err := svc.EnsureAccount(ctx, id, "seeker@example.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, accounts.rows, 1)
	})
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("free account profile", func(t *testing.T) {
		accounts, _, svc := newAccountFixture()
		acct := &db_models.Account{Email: "seeker@example.com"}
		accounts.put(acct)

		profile, err := svc.GetProfile(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, "free", profile.Tier)
		assert.Nil(t, profile.Subscription)
	})

	t.Run("subscribed account carries tier and subscription", func(t *testing.T) {
		accounts, subs, svc := newAccountFixture()
		acct := &db_models.Account{Email: "mystic@example.com"}
		accounts.put(acct)
		subs.put(&db_models.Subscription{
			AccountID: acct.ID, ProviderSubID: "sub_1",
			ProviderPriceID: testPricePro, Status: db_models.SubStatusActive,
		})

		profile, err := svc.GetProfile(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, "pro", profile.Tier)
		require.NotNil(t, profile.Subscription)
		assert.Equal(t, "pro", profile.Subscription.Tier)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, _, svc := newAccountFixture()
		_, err := svc.GetProfile(ctx, uuid.New())
		assert.ErrorIs(t, err, utils.ErrAccountNotFound)
	})
}
