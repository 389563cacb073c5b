package memstore

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/testutil"
)

func TestUpsertVerification(t *testing.T) {
	store := New()
	ctx := t.Context()
	address := testutil.RandomWalletAddress()

	account, err := store.UpsertVerification(ctx, address, "subject-1", "first")
	require.NoError(t, err)
	assert.True(t, account.Verified)
	assert.Equal(t, "subject-1", account.SubjectID)
	assert.True(t, account.BalanceDec().IsZero())

	// Upsert again rebinds the identity without resetting the account.
	_, err = store.AdjustBalance(ctx, address, math.LegacyNewDec(5))
	require.NoError(t, err)

	account, err = store.UpsertVerification(ctx, address, "subject-2", "second")
	require.NoError(t, err)
	assert.Equal(t, "subject-2", account.SubjectID)
	assert.Equal(t, "second", account.DisplayName)
	assert.True(t, account.BalanceDec().Equal(math.LegacyNewDec(5)))
}

func TestAdjustBalance_RejectsNegativeResult(t *testing.T) {
	store := New()
	ctx := t.Context()
	address := testutil.RandomWalletAddress()

	_, err := store.UpsertVerification(ctx, address, "subject", "name")
	require.NoError(t, err)

	_, err = store.AdjustBalance(ctx, address, math.LegacyNewDec(-1))
	require.Error(t, err)
	assert.True(t, db.IsInsufficientBalanceError(err))

	account, err := store.GetAccountByAddress(ctx, address)
	require.NoError(t, err)
	assert.True(t, account.BalanceDec().IsZero())
}

func TestCommitClaim_RejectsDuplicateID(t *testing.T) {
	store := New()
	ctx := t.Context()
	address := testutil.RandomWalletAddress()

	_, err := store.UpsertVerification(ctx, address, "subject", "name")
	require.NoError(t, err)

	claim := testutil.RandomClaimRecord(address, time.Now().UTC())
	_, err = store.CommitClaim(ctx, claim)
	require.NoError(t, err)

	_, err = store.CommitClaim(ctx, claim)
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyError(err))
}

func TestUpdateItemStaking_CompareAndSwap(t *testing.T) {
	store := New()
	ctx := t.Context()
	owner := testutil.RandomWalletAddress()

	item := testutil.RandomItem(owner)
	require.NoError(t, store.SaveItem(ctx, item))

	now := time.Now().UTC()
	updated, err := store.UpdateItemStaking(ctx, item.ID, false, true, &now)
	require.NoError(t, err)
	assert.True(t, updated.Staked)

	// The swap only applies from the expected current state.
	_, err = store.UpdateItemStaking(ctx, item.ID, false, true, &now)
	require.Error(t, err)
	assert.True(t, db.IsNotFoundError(err))

	updated, err = store.UpdateItemStaking(ctx, item.ID, true, false, nil)
	require.NoError(t, err)
	assert.False(t, updated.Staked)
	assert.Nil(t, updated.StakedAt)
}

func TestSettleRewards_ZeroesAccrualsAndCreditsBalance(t *testing.T) {
	store := New()
	ctx := t.Context()
	owner := testutil.RandomWalletAddress()

	_, err := store.UpsertVerification(ctx, owner, "subject", "name")
	require.NoError(t, err)

	now := time.Now().UTC()
	for _, earned := range []string{"1", "2.5"} {
		item := testutil.RandomItem(owner)
		require.NoError(t, store.SaveItem(ctx, item))
		require.NoError(t, store.CreateRewardAccrual(ctx, &model.RewardAccrual{
			ID:            model.RewardAccrualID(owner, item.ID),
			OwnerAddress:  owner,
			ItemID:        item.ID,
			Earned:        earned,
			LastAccruedAt: now,
			CreatedAt:     now,
		}))
	}

	account, err := store.SettleRewards(ctx, owner, math.LegacyMustNewDecFromStr("3.5"), now)
	require.NoError(t, err)
	assert.True(t, account.BalanceDec().Equal(math.LegacyMustNewDecFromStr("3.5")))

	accruals, err := store.ListRewardAccrualsByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, accruals, 2)
	for _, accrual := range accruals {
		assert.True(t, accrual.EarnedDec().IsZero())
		assert.Equal(t, now, accrual.LastSettledAt)
	}

	stats, err := store.GetRewardStats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.TotalDistributedDec().Equal(math.LegacyMustNewDecFromStr("3.5")))
}

func TestSettleRewards_FailedCreditLeavesAccrualsUntouched(t *testing.T) {
	store := New()
	ctx := t.Context()
	owner := testutil.RandomWalletAddress()

	_, err := store.UpsertVerification(ctx, owner, "subject", "name")
	require.NoError(t, err)

	now := time.Now().UTC()
	item := testutil.RandomItem(owner)
	require.NoError(t, store.SaveItem(ctx, item))
	require.NoError(t, store.CreateRewardAccrual(ctx, &model.RewardAccrual{
		ID:            model.RewardAccrualID(owner, item.ID),
		OwnerAddress:  owner,
		ItemID:        item.ID,
		Earned:        "1.5",
		LastAccruedAt: now,
		CreatedAt:     now,
	}))

	// The credit runs before the zeroing, so a rejected credit must leave the
	// accrual earned and unsettled.
	_, err = store.SettleRewards(ctx, owner, math.LegacyMustNewDecFromStr("-1"), now)
	require.Error(t, err)
	assert.True(t, db.IsInsufficientBalanceError(err))

	accrual, err := store.GetRewardAccrual(ctx, owner, item.ID)
	require.NoError(t, err)
	assert.True(t, accrual.EarnedDec().Equal(math.LegacyMustNewDecFromStr("1.5")))
	assert.True(t, accrual.LastSettledAt.IsZero())

	account, err := store.GetAccountByAddress(ctx, owner)
	require.NoError(t, err)
	assert.True(t, account.BalanceDec().IsZero())

	stats, err := store.GetRewardStats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.TotalDistributedDec().IsZero())
}

func TestCalculateCollectionStats(t *testing.T) {
	store := New()
	ctx := t.Context()

	ownerOne := testutil.RandomWalletAddress()
	ownerTwo := testutil.RandomWalletAddress()

	staked := testutil.RandomItem(ownerOne)
	staked.Staked = true
	now := time.Now().UTC()
	staked.StakedAt = &now
	require.NoError(t, store.SaveItem(ctx, staked))
	require.NoError(t, store.SaveItem(ctx, testutil.RandomItem(ownerTwo)))
	require.NoError(t, store.SaveItem(ctx, testutil.RandomItem("")))

	totalItems, totalStaked, totalHolders, err := store.CalculateCollectionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), totalItems)
	assert.Equal(t, uint64(1), totalStaked)
	assert.Equal(t, uint64(2), totalHolders)
}
