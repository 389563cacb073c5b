// Package memstore is an in-memory implementation of db.DbInterface with
// process-lifetime state. It backs unit tests and local development where a
// MongoDB deployment is not worth the trouble; the service layer is oblivious
// to which backend it talks to.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/math"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
)

const dayFormat = "2006-01-02"

var _ db.DbInterface = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	accounts map[string]*model.Account
	claims   map[string]*model.ClaimRecord
	items    map[string]*model.Item
	accruals map[string]*model.RewardAccrual

	faucetStats  model.FaucetStatsDocument
	rewardStats  model.RewardStatsDocument
	overallStats *model.OverallStatsDocument
}

func New() *Store {
	return &Store{
		accounts: make(map[string]*model.Account),
		claims:   make(map[string]*model.ClaimRecord),
		items:    make(map[string]*model.Item),
		accruals: make(map[string]*model.RewardAccrual),
		faucetStats: model.FaucetStatsDocument{
			ID:             model.FaucetStatsDocID,
			TotalDisbursed: math.LegacyZeroDec().String(),
		},
		rewardStats: model.RewardStatsDocument{
			ID:               model.RewardStatsDocID,
			TotalDistributed: math.LegacyZeroDec().String(),
		},
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) GetAccountByAddress(ctx context.Context, address string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[address]
	if !ok {
		return nil, &db.NotFoundError{Key: address, Message: "account not found by wallet address"}
	}
	copied := *account
	return &copied, nil
}

func (s *Store) UpsertVerification(
	ctx context.Context, address, subjectID, displayName string,
) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[address]
	if !ok {
		account = &model.Account{
			Address:   address,
			Balance:   math.LegacyZeroDec().String(),
			CreatedAt: time.Now().UTC(),
		}
		s.accounts[address] = account
	}
	account.Verified = true
	account.SubjectID = subjectID
	account.DisplayName = displayName

	copied := *account
	return &copied, nil
}

func (s *Store) AdjustBalance(
	ctx context.Context, address string, delta math.LegacyDec,
) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.adjustBalanceLocked(address, delta)
}

func (s *Store) adjustBalanceLocked(address string, delta math.LegacyDec) (*model.Account, error) {
	account, ok := s.accounts[address]
	if !ok {
		return nil, &db.NotFoundError{Key: address, Message: "account not found by wallet address"}
	}

	newBalance := account.BalanceDec().Add(delta)
	if newBalance.IsNegative() {
		return nil, &db.InsufficientBalanceError{
			Key: address,
			Message: fmt.Sprintf(
				"balance adjustment by %s would leave %s negative",
				delta.String(), account.Balance,
			),
		}
	}
	account.Balance = newBalance.String()

	copied := *account
	return &copied, nil
}

func (s *Store) GetLastClaim(ctx context.Context, address string) (*model.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *model.ClaimRecord
	for _, claim := range s.claims {
		if claim.Address != address {
			continue
		}
		if last == nil || claim.ClaimedAt.After(last.ClaimedAt) {
			last = claim
		}
	}
	if last == nil {
		return nil, &db.NotFoundError{Key: address, Message: "no claim records for wallet address"}
	}
	copied := *last
	return &copied, nil
}

func (s *Store) CommitClaim(ctx context.Context, claim *model.ClaimRecord) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claims[claim.ID]; exists {
		return nil, &db.DuplicateKeyError{Key: claim.ID, Message: "claim record already exists"}
	}

	newClaimer := true
	for _, existing := range s.claims {
		if existing.Address == claim.Address {
			newClaimer = false
			break
		}
	}

	account, err := s.adjustBalanceLocked(claim.Address, claim.AmountDec())
	if err != nil {
		return nil, err
	}

	copied := *claim
	s.claims[claim.ID] = &copied

	claimedAt := claim.ClaimedAt
	s.accounts[claim.Address].LastClaimAt = &claimedAt
	account.LastClaimAt = &claimedAt

	today := claim.ClaimedAt.UTC().Format(dayFormat)
	if s.faucetStats.Day != today {
		s.faucetStats.ClaimsToday = 0
		s.faucetStats.Day = today
	}
	s.faucetStats.ClaimsToday++
	s.faucetStats.TotalDisbursed = s.faucetStats.TotalDisbursedDec().Add(claim.AmountDec()).String()
	if newClaimer {
		s.faucetStats.TotalClaimers++
	}

	return account, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, &db.NotFoundError{Key: id, Message: "item not found"}
	}
	copied := *item
	return &copied, nil
}

func (s *Store) SaveItem(ctx context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return &db.DuplicateKeyError{Key: item.ID, Message: "item already exists"}
	}
	copied := *item
	s.items[item.ID] = &copied
	return nil
}

func (s *Store) ListItems(ctx context.Context, limit, offset int64) ([]*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var items []*model.Item
	for i := offset; i < int64(len(ids)) && int64(len(items)) < limit; i++ {
		copied := *s.items[ids[i]]
		items = append(items, &copied)
	}
	return items, nil
}

func (s *Store) ListItemsByOwner(ctx context.Context, ownerAddress string) ([]*model.Item, error) {
	return s.filterItems(func(item *model.Item) bool {
		return item.OwnerAddress != nil && *item.OwnerAddress == ownerAddress
	})
}

func (s *Store) ListStakedItemsByOwner(ctx context.Context, ownerAddress string) ([]*model.Item, error) {
	return s.filterItems(func(item *model.Item) bool {
		return item.Staked && item.OwnerAddress != nil && *item.OwnerAddress == ownerAddress
	})
}

func (s *Store) ListStakedItems(ctx context.Context) ([]*model.Item, error) {
	return s.filterItems(func(item *model.Item) bool {
		return item.Staked
	})
}

func (s *Store) filterItems(keep func(*model.Item) bool) ([]*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*model.Item
	for _, item := range s.items {
		if keep(item) {
			copied := *item
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) UpdateItemStaking(
	ctx context.Context, id string, fromStaked, toStaked bool, stakedAt *time.Time,
) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.Staked != fromStaked {
		return nil, &db.NotFoundError{
			Key:     id,
			Message: "item not found or not in the expected staking state",
		}
	}

	item.Staked = toStaked
	if stakedAt != nil {
		at := *stakedAt
		item.StakedAt = &at
	} else {
		item.StakedAt = nil
	}

	copied := *item
	return &copied, nil
}

func (s *Store) GetRewardAccrual(
	ctx context.Context, ownerAddress, itemID string,
) (*model.RewardAccrual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := model.RewardAccrualID(ownerAddress, itemID)
	accrual, ok := s.accruals[id]
	if !ok {
		return nil, &db.NotFoundError{Key: id, Message: "reward accrual not found for owner and item"}
	}
	copied := *accrual
	return &copied, nil
}

func (s *Store) CreateRewardAccrual(ctx context.Context, accrual *model.RewardAccrual) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accruals[accrual.ID]; exists {
		return &db.DuplicateKeyError{
			Key:     accrual.ID,
			Message: "reward accrual already exists for owner and item",
		}
	}
	copied := *accrual
	s.accruals[accrual.ID] = &copied
	return nil
}

func (s *Store) UpdateRewardAccrual(
	ctx context.Context, ownerAddress, itemID string, earned math.LegacyDec, accruedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := model.RewardAccrualID(ownerAddress, itemID)
	accrual, ok := s.accruals[id]
	if !ok {
		return &db.NotFoundError{Key: id, Message: "reward accrual not found when updating earned amount"}
	}
	accrual.Earned = earned.String()
	accrual.LastAccruedAt = accruedAt
	return nil
}

func (s *Store) ListRewardAccrualsByOwner(
	ctx context.Context, ownerAddress string,
) ([]*model.RewardAccrual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accruals []*model.RewardAccrual
	for _, accrual := range s.accruals {
		if accrual.OwnerAddress == ownerAddress {
			copied := *accrual
			accruals = append(accruals, &copied)
		}
	}
	sort.Slice(accruals, func(i, j int) bool { return accruals[i].ID < accruals[j].ID })
	return accruals, nil
}

func (s *Store) SettleRewards(
	ctx context.Context, ownerAddress string, total math.LegacyDec, settledAt time.Time,
) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.adjustBalanceLocked(ownerAddress, total)
	if err != nil {
		return nil, err
	}

	zero := math.LegacyZeroDec().String()
	for _, accrual := range s.accruals {
		if accrual.OwnerAddress != ownerAddress {
			continue
		}
		accrual.Earned = zero
		accrual.LastSettledAt = settledAt
		accrual.LastAccruedAt = settledAt
	}

	s.rewardStats.TotalDistributed = s.rewardStats.TotalDistributedDec().Add(total).String()

	return account, nil
}

func (s *Store) GetFaucetStats(ctx context.Context) (*model.FaucetStatsDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := s.faucetStats
	return &copied, nil
}

func (s *Store) GetRewardStats(ctx context.Context) (*model.RewardStatsDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := s.rewardStats
	return &copied, nil
}

func (s *Store) CalculateCollectionStats(
	ctx context.Context,
) (totalItems, totalStaked, totalHolders uint64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make(map[string]struct{})
	for _, item := range s.items {
		totalItems++
		if item.Staked {
			totalStaked++
		}
		if item.HasOwner() {
			owners[*item.OwnerAddress] = struct{}{}
		}
	}
	return totalItems, totalStaked, uint64(len(owners)), nil
}

func (s *Store) UpsertOverallStats(ctx context.Context, doc *model.OverallStatsDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *doc
	copied.ID = model.OverallStatsDocID
	s.overallStats = &copied
	return nil
}

func (s *Store) GetOverallStats(ctx context.Context) (*model.OverallStatsDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.overallStats == nil {
		return nil, &db.NotFoundError{
			Key:     model.OverallStatsDocID,
			Message: "overall stats snapshot not computed yet",
		}
	}
	copied := *s.overallStats
	return &copied, nil
}
