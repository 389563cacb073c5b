package db

import (
	"context"
	"time"

	"cosmossdk.io/math"

	"github.com/vikingheim/odin-rewards/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	// Accounts
	GetAccountByAddress(ctx context.Context, address string) (*model.Account, error)
	// UpsertVerification creates the account if absent (zero balance), marks it
	// verified and rebinds the identity fields to the latest call's values.
	UpsertVerification(ctx context.Context, address, subjectID, displayName string) (*model.Account, error)
	// AdjustBalance applies balance += delta, failing with
	// InsufficientBalanceError when the result would be negative.
	AdjustBalance(ctx context.Context, address string, delta math.LegacyDec) (*model.Account, error)

	// Claim ledger
	GetLastClaim(ctx context.Context, address string) (*model.ClaimRecord, error)
	// CommitClaim appends the ledger record, credits the balance, advances
	// last_claim_at and bumps the faucet counters as one atomic unit.
	CommitClaim(ctx context.Context, claim *model.ClaimRecord) (*model.Account, error)

	// Items
	GetItem(ctx context.Context, id string) (*model.Item, error)
	SaveItem(ctx context.Context, item *model.Item) error
	ListItems(ctx context.Context, limit, offset int64) ([]*model.Item, error)
	ListItemsByOwner(ctx context.Context, ownerAddress string) ([]*model.Item, error)
	ListStakedItemsByOwner(ctx context.Context, ownerAddress string) ([]*model.Item, error)
	ListStakedItems(ctx context.Context) ([]*model.Item, error)
	// UpdateItemStaking flips the staking flag only when the item is currently
	// in fromStaked state, so concurrent stake requests cannot both win.
	UpdateItemStaking(ctx context.Context, id string, fromStaked, toStaked bool, stakedAt *time.Time) (*model.Item, error)

	// Reward accruals
	GetRewardAccrual(ctx context.Context, ownerAddress, itemID string) (*model.RewardAccrual, error)
	CreateRewardAccrual(ctx context.Context, accrual *model.RewardAccrual) error
	UpdateRewardAccrual(ctx context.Context, ownerAddress, itemID string, earned math.LegacyDec, accruedAt time.Time) error
	ListRewardAccrualsByOwner(ctx context.Context, ownerAddress string) ([]*model.RewardAccrual, error)
	// SettleRewards zeroes every accrual owned by the account and credits total
	// to its balance as one atomic unit, bumping the monotonic distributed
	// counter alongside.
	SettleRewards(ctx context.Context, ownerAddress string, total math.LegacyDec, settledAt time.Time) (*model.Account, error)

	// Stats
	GetFaucetStats(ctx context.Context) (*model.FaucetStatsDocument, error)
	GetRewardStats(ctx context.Context) (*model.RewardStatsDocument, error)
	CalculateCollectionStats(ctx context.Context) (totalItems, totalStaked, totalHolders uint64, err error)
	UpsertOverallStats(ctx context.Context, doc *model.OverallStatsDocument) error
	GetOverallStats(ctx context.Context) (*model.OverallStatsDocument, error)
}
