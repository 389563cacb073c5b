package db

import (
	"context"
	"time"

	"cosmossdk.io/math"

	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/internal/observability/metrics"
)

// DbWithMetrics decorates a DbInterface with per-method latency observation.
type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) run(method string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveDbLatency(method, time.Since(start), err)
	return err
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) GetAccountByAddress(ctx context.Context, address string) (result *model.Account, err error) {
	//nolint:errcheck
	d.run("GetAccountByAddress", func() error {
		result, err = d.db.GetAccountByAddress(ctx, address)
		return err
	})

	return
}

func (d *DbWithMetrics) UpsertVerification(ctx context.Context, address, subjectID, displayName string) (result *model.Account, err error) {
	//nolint:errcheck
	d.run("UpsertVerification", func() error {
		result, err = d.db.UpsertVerification(ctx, address, subjectID, displayName)
		return err
	})

	return
}

func (d *DbWithMetrics) AdjustBalance(ctx context.Context, address string, delta math.LegacyDec) (result *model.Account, err error) {
	//nolint:errcheck
	d.run("AdjustBalance", func() error {
		result, err = d.db.AdjustBalance(ctx, address, delta)
		return err
	})

	return
}

func (d *DbWithMetrics) GetLastClaim(ctx context.Context, address string) (result *model.ClaimRecord, err error) {
	//nolint:errcheck
	d.run("GetLastClaim", func() error {
		result, err = d.db.GetLastClaim(ctx, address)
		return err
	})

	return
}

func (d *DbWithMetrics) CommitClaim(ctx context.Context, claim *model.ClaimRecord) (result *model.Account, err error) {
	//nolint:errcheck
	d.run("CommitClaim", func() error {
		result, err = d.db.CommitClaim(ctx, claim)
		return err
	})

	return
}

func (d *DbWithMetrics) GetItem(ctx context.Context, id string) (result *model.Item, err error) {
	//nolint:errcheck
	d.run("GetItem", func() error {
		result, err = d.db.GetItem(ctx, id)
		return err
	})

	return
}

func (d *DbWithMetrics) SaveItem(ctx context.Context, item *model.Item) error {
	return d.run("SaveItem", func() error {
		return d.db.SaveItem(ctx, item)
	})
}

func (d *DbWithMetrics) ListItems(ctx context.Context, limit, offset int64) (result []*model.Item, err error) {
	//nolint:errcheck
	d.run("ListItems", func() error {
		result, err = d.db.ListItems(ctx, limit, offset)
		return err
	})

	return
}

func (d *DbWithMetrics) ListItemsByOwner(ctx context.Context, ownerAddress string) (result []*model.Item, err error) {
	//nolint:errcheck
	d.run("ListItemsByOwner", func() error {
		result, err = d.db.ListItemsByOwner(ctx, ownerAddress)
		return err
	})

	return
}

func (d *DbWithMetrics) ListStakedItemsByOwner(ctx context.Context, ownerAddress string) (result []*model.Item, err error) {
	//nolint:errcheck
	d.run("ListStakedItemsByOwner", func() error {
		result, err = d.db.ListStakedItemsByOwner(ctx, ownerAddress)
		return err
	})

	return
}

func (d *DbWithMetrics) ListStakedItems(ctx context.Context) (result []*model.Item, err error) {
	//nolint:errcheck
	d.run("ListStakedItems", func() error {
		result, err = d.db.ListStakedItems(ctx)
		return err
	})

	return
}

func (d *DbWithMetrics) UpdateItemStaking(ctx context.Context, id string, fromStaked, toStaked bool, stakedAt *time.Time) (result *model.Item, err error) {
	//nolint:errcheck
	d.run("UpdateItemStaking", func() error {
		result, err = d.db.UpdateItemStaking(ctx, id, fromStaked, toStaked, stakedAt)
		return err
	})

	return
}

func (d *DbWithMetrics) GetRewardAccrual(ctx context.Context, ownerAddress, itemID string) (result *model.RewardAccrual, err error) {
	//nolint:errcheck
	d.run("GetRewardAccrual", func() error {
		result, err = d.db.GetRewardAccrual(ctx, ownerAddress, itemID)
		return err
	})

	return
}

func (d *DbWithMetrics) CreateRewardAccrual(ctx context.Context, accrual *model.RewardAccrual) error {
	return d.run("CreateRewardAccrual", func() error {
		return d.db.CreateRewardAccrual(ctx, accrual)
	})
}

func (d *DbWithMetrics) UpdateRewardAccrual(ctx context.Context, ownerAddress, itemID string, earned math.LegacyDec, accruedAt time.Time) error {
	return d.run("UpdateRewardAccrual", func() error {
		return d.db.UpdateRewardAccrual(ctx, ownerAddress, itemID, earned, accruedAt)
	})
}

func (d *DbWithMetrics) ListRewardAccrualsByOwner(ctx context.Context, ownerAddress string) (result []*model.RewardAccrual, err error) {
	//nolint:errcheck
	d.run("ListRewardAccrualsByOwner", func() error {
		result, err = d.db.ListRewardAccrualsByOwner(ctx, ownerAddress)
		return err
	})

	return
}

func (d *DbWithMetrics) SettleRewards(ctx context.Context, ownerAddress string, total math.LegacyDec, settledAt time.Time) (result *model.Account, err error) {
	//nolint:errcheck
	d.run("SettleRewards", func() error {
		result, err = d.db.SettleRewards(ctx, ownerAddress, total, settledAt)
		return err
	})

	return
}

func (d *DbWithMetrics) GetFaucetStats(ctx context.Context) (result *model.FaucetStatsDocument, err error) {
	//nolint:errcheck
	d.run("GetFaucetStats", func() error {
		result, err = d.db.GetFaucetStats(ctx)
		return err
	})

	return
}

func (d *DbWithMetrics) GetRewardStats(ctx context.Context) (result *model.RewardStatsDocument, err error) {
	//nolint:errcheck
	d.run("GetRewardStats", func() error {
		result, err = d.db.GetRewardStats(ctx)
		return err
	})

	return
}

func (d *DbWithMetrics) CalculateCollectionStats(ctx context.Context) (totalItems, totalStaked, totalHolders uint64, err error) {
	//nolint:errcheck
	d.run("CalculateCollectionStats", func() error {
		totalItems, totalStaked, totalHolders, err = d.db.CalculateCollectionStats(ctx)
		return err
	})

	return
}

func (d *DbWithMetrics) UpsertOverallStats(ctx context.Context, doc *model.OverallStatsDocument) error {
	return d.run("UpsertOverallStats", func() error {
		return d.db.UpsertOverallStats(ctx, doc)
	})
}

func (d *DbWithMetrics) GetOverallStats(ctx context.Context) (result *model.OverallStatsDocument, err error) {
	//nolint:errcheck
	d.run("GetOverallStats", func() error {
		result, err = d.db.GetOverallStats(ctx)
		return err
	})

	return
}
