package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vikingheim/odin-rewards/internal/clients/chainclient"
	"github.com/vikingheim/odin-rewards/internal/clients/discordclient"
	"github.com/vikingheim/odin-rewards/internal/config"
	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/memstore"
	"github.com/vikingheim/odin-rewards/internal/db/model"
)

// testClock is a manually advanced clock shared with the service under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubChain counts disbursements and can be told to fail or stall.
type stubChain struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (c *stubChain) SendFunds(
	ctx context.Context, toAddress string, amount math.LegacyDec,
) (*chainclient.TransferReceipt, error) {
	c.mu.Lock()
	c.calls++
	err := c.err
	delay := c.delay
	c.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return &chainclient.TransferReceipt{TxHash: "0x" + uuid.New().String()}, nil
}

func (c *stubChain) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *stubChain) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// stubVerifier resolves every code to a fixed identity unless primed with an error.
type stubVerifier struct {
	identity discordclient.Identity
	err      error
}

func (v *stubVerifier) Verify(ctx context.Context, code string) (*discordclient.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	identity := v.identity
	return &identity, nil
}

type testEnv struct {
	service  *Service
	store    *memstore.Store
	clock    *testClock
	chain    *stubChain
	verifier *stubVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	clock := newTestClock()
	chain := &stubChain{}
	verifier := &stubVerifier{
		identity: discordclient.Identity{SubjectID: "subject-1", DisplayName: "odinfan"},
	}

	service := NewService(&config.Config{}, store, verifier, chain, nil)
	service.now = clock.Now

	return &testEnv{
		service:  service,
		store:    store,
		clock:    clock,
		chain:    chain,
		verifier: verifier,
	}
}

// seedVerifiedAccount creates a verified account and returns its address.
func (e *testEnv) seedVerifiedAccount(t *testing.T, address string) string {
	t.Helper()

	account, err := e.store.UpsertVerification(t.Context(), address, "subject-"+address, "holder")
	require.NoError(t, err)
	return account.Address
}

// seedStakedItem creates an owned item already in the staked state, with its
// accrual position opened at the clock's current time.
func (e *testEnv) seedStakedItem(t *testing.T, owner string) *model.Item {
	t.Helper()
	ctx := t.Context()

	now := e.clock.Now()
	item := &model.Item{
		ID:           uuid.New().String(),
		TokenID:      "1",
		Name:         "test item",
		OwnerAddress: &owner,
		Staked:       true,
		StakedAt:     &now,
		CreatedAt:    now,
	}
	require.NoError(t, e.store.SaveItem(ctx, item))
	require.NoError(t, e.store.CreateRewardAccrual(ctx, &model.RewardAccrual{
		ID:            model.RewardAccrualID(owner, item.ID),
		OwnerAddress:  owner,
		ItemID:        item.ID,
		Earned:        "0",
		LastAccruedAt: now,
		CreatedAt:     now,
	}))
	return item
}

// seedOwnedItem creates an unstaked item owned by the given address.
func (e *testEnv) seedOwnedItem(t *testing.T, owner string) *model.Item {
	t.Helper()

	item := &model.Item{
		ID:           uuid.New().String(),
		TokenID:      "2",
		Name:         "test item",
		OwnerAddress: &owner,
		CreatedAt:    e.clock.Now(),
	}
	require.NoError(t, e.store.SaveItem(t.Context(), item))
	return item
}

const testWallet = "0x00000000219ab540356cbb839cbe05303d7705fa"

func mustDec(s string) math.LegacyDec {
	return math.LegacyMustNewDecFromStr(s)
}

// requireDecEqual compares decimals by value; LegacyDec renders all 18
// fractional digits so string equality is too strict for test expectations.
func requireDecEqual(t *testing.T, expected string, actual math.LegacyDec) {
	t.Helper()
	require.True(t,
		actual.Equal(math.LegacyMustNewDecFromStr(expected)),
		"expected %s, got %s", expected, actual,
	)
}

// commitFailingDb delegates everything to the wrapped store except the claim
// commit, which always fails.
type commitFailingDb struct {
	db.DbInterface
}

func (d *commitFailingDb) CommitClaim(ctx context.Context, claim *model.ClaimRecord) (*model.Account, error) {
	return nil, errors.New("write conflict")
}

// settleFailingDb delegates everything to the wrapped store except the
// settlement write, which always fails.
type settleFailingDb struct {
	db.DbInterface
}

func (d *settleFailingDb) SettleRewards(
	ctx context.Context, ownerAddress string, total math.LegacyDec, settledAt time.Time,
) (*model.Account, error) {
	return nil, errors.New("write conflict")
}
