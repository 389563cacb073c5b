package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/internal/observability/metrics"
	"github.com/vikingheim/odin-rewards/internal/types"
	"github.com/vikingheim/odin-rewards/pkg"
)

// accrualRatePerDayStr is the reward earned per staked item per day.
const accrualRatePerDayStr = "0.1"

func accrualRatePerDay() math.LegacyDec {
	return math.LegacyMustNewDecFromStr(accrualRatePerDayStr)
}

// accruedOver converts an elapsed duration into earned reward at the fixed
// daily rate, computed with decimal precision.
func accruedOver(elapsed time.Duration) math.LegacyDec {
	if elapsed <= 0 {
		return math.LegacyZeroDec()
	}
	elapsedNanos := math.LegacyNewDec(elapsed.Nanoseconds())
	dayNanos := math.LegacyNewDec((24 * time.Hour).Nanoseconds())
	return accrualRatePerDay().Mul(elapsedNanos).Quo(dayNanos)
}

// accrualWindowStart returns the point accrual resumes from. An item re-staked
// after a gap must not earn for the gap, so the later of the accrual watermark
// and the staking start wins.
func accrualWindowStart(accrual *model.RewardAccrual, stakedAt time.Time) time.Time {
	if accrual.LastAccruedAt.After(stakedAt) {
		return accrual.LastAccruedAt
	}
	return stakedAt
}

// accrueItem folds the interval since the last accrual into the item's
// position and advances the watermark. Safe to call repeatedly; an interval is
// never counted twice.
func (s *Service) accrueItem(ctx context.Context, item *model.Item, asOf time.Time) error {
	if !item.Staked || item.StakedAt == nil || !item.HasOwner() {
		return nil
	}
	owner := *item.OwnerAddress

	accrual, err := s.db.GetRewardAccrual(ctx, owner, item.ID)
	if err != nil {
		if db.IsNotFoundError(err) {
			// Position missing for a staked item, open it now. Accrual starts
			// from this point; the gap is forfeited.
			return s.db.CreateRewardAccrual(ctx, &model.RewardAccrual{
				ID:            model.RewardAccrualID(owner, item.ID),
				OwnerAddress:  owner,
				ItemID:        item.ID,
				Earned:        "0",
				LastAccruedAt: asOf,
				CreatedAt:     asOf,
			})
		}
		return err
	}

	start := accrualWindowStart(accrual, *item.StakedAt)
	earned := accruedOver(asOf.Sub(start))
	if earned.IsZero() {
		return nil
	}

	return s.db.UpdateRewardAccrual(ctx, owner, item.ID, accrual.EarnedDec().Add(earned), asOf)
}

// AccrueAll advances every staked position to now. Run periodically by the
// accrual poller. Each owner's pass holds the account lock: settlement zeroes
// earned under the same lock, and an unguarded tick could read earned before a
// settlement and write the stale sum back after it, paying the interval twice.
func (s *Service) AccrueAll(ctx context.Context) error {
	items, err := s.db.ListStakedItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to list staked items: %w", err)
	}

	byOwner := make(map[string][]*model.Item)
	for _, item := range items {
		if !item.HasOwner() {
			continue
		}
		byOwner[*item.OwnerAddress] = append(byOwner[*item.OwnerAddress], item)
	}

	asOf := s.now()
	var failed int
	for owner, owned := range byOwner {
		unlock := s.lockAccount(owner)
		for _, item := range owned {
			if err := s.accrueItem(ctx, item, asOf); err != nil {
				failed++
				log.Ctx(ctx).Error().Err(err).
					Str("item_id", item.ID).
					Msg("Failed to accrue rewards for item")
			}
		}
		unlock()
	}
	if failed > 0 {
		return fmt.Errorf("accrual failed for %d of %d staked items", failed, len(items))
	}

	log.Ctx(ctx).Debug().Int("items", len(items)).Msg("Accrued staked positions")
	return nil
}

// RewardPosition is the read model for one accruing (item, owner) pair.
type RewardPosition struct {
	ItemID  string
	Earned  math.LegacyDec
	Staked  bool
	Pending math.LegacyDec
}

// RewardsSummary reports an account's unsettled rewards. Pending amounts
// include live extrapolation up to now for still-staked items, so the caller
// sees the value a settlement issued right now would pay.
type RewardsSummary struct {
	Address   string
	Total     math.LegacyDec
	Positions []RewardPosition
}

func (s *Service) GetRewards(ctx context.Context, walletAddress string) (*RewardsSummary, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	accruals, listErr := s.db.ListRewardAccrualsByOwner(ctx, address)
	if listErr != nil {
		return nil, types.NewInternalServiceError(listErr)
	}

	stakedByID := make(map[string]*model.Item)
	stakedItems, listErr := s.db.ListStakedItemsByOwner(ctx, address)
	if listErr != nil {
		return nil, types.NewInternalServiceError(listErr)
	}
	for _, item := range stakedItems {
		stakedByID[item.ID] = item
	}

	now := s.now()
	summary := &RewardsSummary{
		Address: address,
		Total:   math.LegacyZeroDec(),
	}
	for _, accrual := range accruals {
		position := RewardPosition{
			ItemID:  accrual.ItemID,
			Earned:  accrual.EarnedDec(),
			Pending: accrual.EarnedDec(),
		}
		if item, ok := stakedByID[accrual.ItemID]; ok && item.StakedAt != nil {
			position.Staked = true
			start := accrualWindowStart(accrual, *item.StakedAt)
			position.Pending = position.Pending.Add(accruedOver(now.Sub(start)))
		}
		summary.Total = summary.Total.Add(position.Pending)
		summary.Positions = append(summary.Positions, position)
	}

	return summary, nil
}

// SettlementResult is the outcome of folding accrued rewards into a balance.
type SettlementResult struct {
	Address   string
	Amount    math.LegacyDec
	Positions int
	Balance   math.LegacyDec
	SettledAt time.Time
}

// SettleRewards accrues every staked position up to now, then atomically
// zeroes the account's accruals and credits the total to its balance.
func (s *Service) SettleRewards(ctx context.Context, walletAddress string) (*SettlementResult, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	unlock := s.lockAccount(address)
	defer unlock()

	now := s.now()

	stakedItems, listErr := s.db.ListStakedItemsByOwner(ctx, address)
	if listErr != nil {
		return nil, types.NewInternalServiceError(listErr)
	}
	for _, item := range stakedItems {
		if err := s.accrueItem(ctx, item, now); err != nil {
			return nil, types.NewInternalServiceError(err)
		}
	}

	accruals, listErr := s.db.ListRewardAccrualsByOwner(ctx, address)
	if listErr != nil {
		return nil, types.NewInternalServiceError(listErr)
	}
	if len(accruals) == 0 {
		return nil, types.NewError(
			http.StatusNotFound,
			types.NoPositions,
			fmt.Errorf("no reward positions for %s", address),
		)
	}

	total := math.LegacyZeroDec()
	for _, accrual := range accruals {
		total = total.Add(accrual.EarnedDec())
	}

	account, settleErr := s.db.SettleRewards(ctx, address, total, now)
	if settleErr != nil {
		return nil, types.NewInternalServiceError(settleErr)
	}

	amount, _ := total.Float64()
	metrics.ObserveSettlementAmount(amount)
	s.publishEvent(ctx, types.EventRewardsSettled, &types.RewardsSettledEvent{
		EventType:     types.EventRewardsSettled.String(),
		WalletAddress: address,
		Amount:        total.String(),
		Positions:     len(accruals),
		SettledAt:     now,
	})

	log.Ctx(ctx).Info().
		Str("address", address).
		Str("amount", total.String()).
		Int("positions", len(accruals)).
		Msg("Rewards settled")

	return &SettlementResult{
		Address:   address,
		Amount:    total,
		Positions: len(accruals),
		Balance:   account.BalanceDec(),
		SettledAt: now,
	}, nil
}
