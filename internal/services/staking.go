package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/internal/types"
	"github.com/vikingheim/odin-rewards/pkg"
)

// StakeItem puts an owned item into the staked state and opens its reward
// accrual position. Staking an already staked item fails, so two concurrent
// requests cannot both win.
func (s *Service) StakeItem(ctx context.Context, walletAddress, itemID string) (*model.Item, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	unlock := s.lockAccount(address)
	defer unlock()

	item, svcErr := s.ownedItem(ctx, address, itemID)
	if svcErr != nil {
		return nil, svcErr
	}
	if item.Staked {
		return nil, types.NewError(
			http.StatusConflict,
			types.AlreadyStaked,
			fmt.Errorf("item %s is already staked", itemID),
		)
	}

	now := s.now()
	item, updateErr := s.db.UpdateItemStaking(ctx, itemID, false, true, &now)
	if updateErr != nil {
		if db.IsNotFoundError(updateErr) {
			return nil, types.NewError(
				http.StatusConflict,
				types.AlreadyStaked,
				fmt.Errorf("item %s is already staked", itemID),
			)
		}
		return nil, types.NewInternalServiceError(updateErr)
	}

	if svcErr := s.ensureAccrual(ctx, address, itemID, now); svcErr != nil {
		return nil, svcErr
	}

	s.publishEvent(ctx, types.EventItemStaked, &types.StakingChangedEvent{
		EventType:     types.EventItemStaked.String(),
		ItemID:        itemID,
		WalletAddress: address,
		OccurredAt:    now,
	})

	log.Ctx(ctx).Info().
		Str("address", address).
		Str("item_id", itemID).
		Msg("Item staked")

	return item, nil
}

// UnstakeItem accrues the position up to now, then clears the staked state.
// The earned-so-far amount survives unstaking and is paid out on the next
// settlement.
func (s *Service) UnstakeItem(ctx context.Context, walletAddress, itemID string) (*model.Item, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	unlock := s.lockAccount(address)
	defer unlock()

	item, svcErr := s.ownedItem(ctx, address, itemID)
	if svcErr != nil {
		return nil, svcErr
	}
	if !item.Staked {
		return nil, types.NewError(
			http.StatusConflict,
			types.NotStaked,
			fmt.Errorf("item %s is not staked", itemID),
		)
	}

	now := s.now()
	if err := s.accrueItem(ctx, item, now); err != nil {
		return nil, types.NewInternalServiceError(err)
	}

	item, updateErr := s.db.UpdateItemStaking(ctx, itemID, true, false, nil)
	if updateErr != nil {
		if db.IsNotFoundError(updateErr) {
			return nil, types.NewError(
				http.StatusConflict,
				types.NotStaked,
				fmt.Errorf("item %s is not staked", itemID),
			)
		}
		return nil, types.NewInternalServiceError(updateErr)
	}

	s.publishEvent(ctx, types.EventItemUnstaked, &types.StakingChangedEvent{
		EventType:     types.EventItemUnstaked.String(),
		ItemID:        itemID,
		WalletAddress: address,
		OccurredAt:    now,
	})

	log.Ctx(ctx).Info().
		Str("address", address).
		Str("item_id", itemID).
		Msg("Item unstaked")

	return item, nil
}

// ownedItem loads the item and checks the caller owns it.
func (s *Service) ownedItem(ctx context.Context, address, itemID string) (*model.Item, *types.Error) {
	item, getErr := s.db.GetItem(ctx, itemID)
	if getErr != nil {
		if db.IsNotFoundError(getErr) {
			return nil, types.NewNotFoundError(getErr)
		}
		return nil, types.NewInternalServiceError(getErr)
	}

	if !item.HasOwner() || *item.OwnerAddress != address {
		return nil, types.NewError(
			http.StatusForbidden,
			types.ValidationFailedError,
			fmt.Errorf("item %s is not owned by %s", itemID, address),
		)
	}

	return item, nil
}

// ensureAccrual creates the accrual position for a freshly staked item if it
// does not exist yet. A surviving position from an earlier staking period is
// kept as is; the accrual window restarts from the new staked-at timestamp.
func (s *Service) ensureAccrual(ctx context.Context, address, itemID string, now time.Time) *types.Error {
	_, getErr := s.db.GetRewardAccrual(ctx, address, itemID)
	if getErr == nil {
		return nil
	}
	if !db.IsNotFoundError(getErr) {
		return types.NewInternalServiceError(getErr)
	}

	accrual := &model.RewardAccrual{
		ID:            model.RewardAccrualID(address, itemID),
		OwnerAddress:  address,
		ItemID:        itemID,
		Earned:        "0",
		LastAccruedAt: now,
		CreatedAt:     now,
	}
	if createErr := s.db.CreateRewardAccrual(ctx, accrual); createErr != nil {
		if db.IsDuplicateKeyError(createErr) {
			return nil
		}
		return types.NewInternalServiceError(createErr)
	}

	return nil
}
