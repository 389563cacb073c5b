package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/internal/types"
)

func TestAccrueAll_ProportionalToElapsedTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.seedVerifiedAccount(t, testWallet)
	item := env.seedStakedItem(t, owner)

	env.clock.Advance(48 * time.Hour)
	require.NoError(t, env.service.AccrueAll(ctx))

	accrual, err := env.store.GetRewardAccrual(ctx, owner, item.ID)
	require.NoError(t, err)
	requireDecEqual(t, "0.2", accrual.EarnedDec())
	assert.Equal(t, env.clock.Now(), accrual.LastAccruedAt)
}

func TestAccrueAll_NeverDoubleCountsAnInterval(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.seedVerifiedAccount(t, testWallet)
	item := env.seedStakedItem(t, owner)

	env.clock.Advance(24 * time.Hour)
	require.NoError(t, env.service.AccrueAll(ctx))
	// A second tick at the same instant adds nothing.
	require.NoError(t, env.service.AccrueAll(ctx))

	accrual, err := env.store.GetRewardAccrual(ctx, owner, item.ID)
	require.NoError(t, err)
	requireDecEqual(t, "0.1", accrual.EarnedDec())
}

func TestAccrueAll_ManyTicksSumToOneWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.seedVerifiedAccount(t, testWallet)
	item := env.seedStakedItem(t, owner)

	// Four 6-hour ticks accrue exactly what one daily tick would.
	for range 4 {
		env.clock.Advance(6 * time.Hour)
		require.NoError(t, env.service.AccrueAll(ctx))
	}

	accrual, err := env.store.GetRewardAccrual(ctx, owner, item.ID)
	require.NoError(t, err)
	requireDecEqual(t, "0.1", accrual.EarnedDec())
}

// gatedAccrualDb parks the first accrual write until released, holding the
// caller mid read-modify-write.
type gatedAccrualDb struct {
	db.DbInterface
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *gatedAccrualDb) UpdateRewardAccrual(
	ctx context.Context, ownerAddress, itemID string, earned math.LegacyDec, accruedAt time.Time,
) error {
	d.once.Do(func() {
		close(d.entered)
		<-d.release
	})
	return d.DbInterface.UpdateRewardAccrual(ctx, ownerAddress, itemID, earned, accruedAt)
}

func TestAccrueAll_SerializedWithSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.seedVerifiedAccount(t, testWallet)
	env.seedStakedItem(t, owner)

	gated := &gatedAccrualDb{
		DbInterface: env.store,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	env.service.db = gated

	env.clock.Advance(24 * time.Hour)

	accrueDone := make(chan error, 1)
	go func() { accrueDone <- env.service.AccrueAll(ctx) }()
	<-gated.entered

	// A settlement issued while the tick is mid write must wait for the tick
	// to finish. If it could slip in between the tick's read and write, the
	// tick would resurrect the settled amount and the day would pay twice.
	type outcome struct {
		result *SettlementResult
		svcErr *types.Error
	}
	settleDone := make(chan outcome, 1)
	go func() {
		result, svcErr := env.service.SettleRewards(ctx, owner)
		settleDone <- outcome{result, svcErr}
	}()

	close(gated.release)
	require.NoError(t, <-accrueDone)

	settled := <-settleDone
	require.Nil(t, settled.svcErr)
	requireDecEqual(t, "0.1", settled.result.Amount)

	// The interval was credited exactly once.
	again, svcErr := env.service.SettleRewards(ctx, owner)
	require.Nil(t, svcErr)
	requireDecEqual(t, "0", again.Amount)

	account, err := env.store.GetAccountByAddress(ctx, owner)
	require.NoError(t, err)
	requireDecEqual(t, "0.1", account.BalanceDec())
}

func TestGetRewards_IncludesLivePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.seedVerifiedAccount(t, testWallet)
	env.seedStakedItem(t, owner)

	// No poller tick has run; pending still reflects the elapsed half day.
	env.clock.Advance(12 * time.Hour)

	summary, svcErr := env.service.GetRewards(ctx, owner)
	require.Nil(t, svcErr)
	requireDecEqual(t, "0.05", summary.Total)
	require.Len(t, summary.Positions, 1)
	assert.True(t, summary.Positions[0].Staked)
	requireDecEqual(t, "0", summary.Positions[0].Earned)
	requireDecEqual(t, "0.05", summary.Positions[0].Pending)
}

func TestSettleRewards(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.seedVerifiedAccount(t, testWallet)

	// Seed a pre-existing balance and two unstaked positions with earned
	// rewards carried over from earlier staking periods.
	_, err := env.store.AdjustBalance(ctx, owner, mustDec("100"))
	require.NoError(t, err)
	now := env.clock.Now()
	for i, earned := range []string{"1.5", "2.0"} {
		item := env.seedOwnedItem(t, owner)
		require.NoError(t, env.store.CreateRewardAccrual(ctx, &model.RewardAccrual{
			ID:            model.RewardAccrualID(owner, item.ID),
			OwnerAddress:  owner,
			ItemID:        item.ID,
			Earned:        earned,
			LastAccruedAt: now,
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
		}))
	}

	result, svcErr := env.service.SettleRewards(ctx, owner)
	require.Nil(t, svcErr)
	requireDecEqual(t, "3.5", result.Amount)
	requireDecEqual(t, "103.5", result.Balance)
	assert.Equal(t, 2, result.Positions)
	assert.Equal(t, now, result.SettledAt)

	// Accruals are zeroed, the distributed counter is advanced.
	accruals, err := env.store.ListRewardAccrualsByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, accruals, 2)
	for _, accrual := range accruals {
		requireDecEqual(t, "0", accrual.EarnedDec())
		assert.Equal(t, now, accrual.LastSettledAt)
	}

	rewardStats, err := env.store.GetRewardStats(ctx)
	require.NoError(t, err)
	requireDecEqual(t, "3.5", rewardStats.TotalDistributedDec())

	// Settling again pays nothing but is not an error.
	again, svcErr := env.service.SettleRewards(ctx, owner)
	require.Nil(t, svcErr)
	requireDecEqual(t, "0", again.Amount)
	requireDecEqual(t, "103.5", again.Balance)
}

func TestSettleRewards_AccruesBeforeSettling(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.seedVerifiedAccount(t, testWallet)
	env.seedStakedItem(t, owner)

	env.clock.Advance(24 * time.Hour)

	// No explicit accrual tick ran; settlement folds the elapsed day in first.
	result, svcErr := env.service.SettleRewards(ctx, owner)
	require.Nil(t, svcErr)
	requireDecEqual(t, "0.1", result.Amount)

	account, err := env.store.GetAccountByAddress(ctx, owner)
	require.NoError(t, err)
	requireDecEqual(t, "0.1", account.BalanceDec())
}

func TestSettleRewards_FailedWriteLeavesRewardsClaimable(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.seedVerifiedAccount(t, testWallet)
	env.seedStakedItem(t, owner)
	env.clock.Advance(24 * time.Hour)

	env.service.db = &settleFailingDb{DbInterface: env.store}
	_, svcErr := env.service.SettleRewards(ctx, owner)
	require.NotNil(t, svcErr)
	assert.Equal(t, types.InternalServiceError, svcErr.ErrorCode)

	// Earned survives the failed write and the balance is unchanged.
	accruals, err := env.store.ListRewardAccrualsByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, accruals, 1)
	requireDecEqual(t, "0.1", accruals[0].EarnedDec())

	account, err := env.store.GetAccountByAddress(ctx, owner)
	require.NoError(t, err)
	requireDecEqual(t, "0", account.BalanceDec())

	// A retry against a healthy store pays the same day exactly once.
	env.service.db = env.store
	result, svcErr := env.service.SettleRewards(ctx, owner)
	require.Nil(t, svcErr)
	requireDecEqual(t, "0.1", result.Amount)
	requireDecEqual(t, "0.1", result.Balance)
}

func TestSettleRewards_NoPositions(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedVerifiedAccount(t, testWallet)

	_, svcErr := env.service.SettleRewards(t.Context(), owner)
	require.NotNil(t, svcErr)
	assert.Equal(t, types.NoPositions, svcErr.ErrorCode)
}
