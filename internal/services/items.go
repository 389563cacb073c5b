package services

import (
	"context"
	"fmt"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/internal/types"
	"github.com/vikingheim/odin-rewards/pkg"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func (s *Service) GetItem(ctx context.Context, itemID string) (*model.Item, *types.Error) {
	if itemID == "" {
		return nil, types.NewValidationFailedError(fmt.Errorf("item id is required"))
	}

	item, err := s.db.GetItem(ctx, itemID)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(err)
		}
		return nil, types.NewInternalServiceError(err)
	}

	return item, nil
}

// ListItems returns a page of the item catalogue ordered by id.
func (s *Service) ListItems(ctx context.Context, limit, offset int64) ([]*model.Item, *types.Error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.db.ListItems(ctx, limit, offset)
	if err != nil {
		return nil, types.NewInternalServiceError(err)
	}

	return items, nil
}

func (s *Service) ListItemsByOwner(ctx context.Context, walletAddress string) ([]*model.Item, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	items, listErr := s.db.ListItemsByOwner(ctx, address)
	if listErr != nil {
		return nil, types.NewInternalServiceError(listErr)
	}

	return items, nil
}

// StakedPosition pairs a staked item with its live pending reward.
type StakedPosition struct {
	Item    *model.Item
	Pending string
}

// GetStakedPositions returns the account's staked items enriched with the
// reward each would pay if settled right now.
func (s *Service) GetStakedPositions(ctx context.Context, walletAddress string) ([]StakedPosition, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	items, listErr := s.db.ListStakedItemsByOwner(ctx, address)
	if listErr != nil {
		return nil, types.NewInternalServiceError(listErr)
	}

	now := s.now()
	positions := make([]StakedPosition, 0, len(items))
	for _, item := range items {
		position := StakedPosition{Item: item, Pending: "0"}

		accrual, getErr := s.db.GetRewardAccrual(ctx, address, item.ID)
		switch {
		case getErr == nil && item.StakedAt != nil:
			start := accrualWindowStart(accrual, *item.StakedAt)
			pending := accrual.EarnedDec().Add(accruedOver(now.Sub(start)))
			position.Pending = pending.String()
		case getErr != nil && !db.IsNotFoundError(getErr):
			return nil, types.NewInternalServiceError(getErr)
		}

		positions = append(positions, position)
	}

	return positions, nil
}
