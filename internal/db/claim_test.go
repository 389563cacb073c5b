//go:build integration

package db_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/testutil"
)

func TestClaimLedger(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("no claims yet", func(t *testing.T) {
		claim, err := testDB.GetLastClaim(ctx, testutil.RandomWalletAddress())
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, claim)
	})

	t.Run("commit claim", func(t *testing.T) {
		address := testutil.RandomWalletAddress()
		_, err := testDB.UpsertVerification(ctx, address, "subject", "name")
		require.NoError(t, err)

		claimedAt := time.Now().UTC().Truncate(time.Millisecond)
		claim := testutil.RandomClaimRecord(address, claimedAt)

		account, err := testDB.CommitClaim(ctx, claim)
		require.NoError(t, err)
		assert.True(t, account.BalanceDec().Equal(claim.AmountDec()))
		require.NotNil(t, account.LastClaimAt)
		assert.Equal(t, claimedAt, account.LastClaimAt.UTC())

		found, err := testDB.GetLastClaim(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, claim.ID, found.ID)
		assert.Equal(t, claim.TxHash, found.TxHash)

		stats, err := testDB.GetFaucetStats(ctx)
		require.NoError(t, err)
		assert.True(t, stats.TotalDisbursedDec().Equal(claim.AmountDec()))
		assert.Equal(t, uint64(1), stats.TotalClaimers)
		assert.Equal(t, uint64(1), stats.ClaimsToday)
	})

	t.Run("last claim wins ordering", func(t *testing.T) {
		address := testutil.RandomWalletAddress()
		_, err := testDB.UpsertVerification(ctx, address, "subject", "name")
		require.NoError(t, err)

		older := testutil.RandomClaimRecord(address, time.Now().UTC().Add(-48*time.Hour))
		newer := testutil.RandomClaimRecord(address, time.Now().UTC())
		for _, claim := range []*model.ClaimRecord{older, newer} {
			_, err := testDB.CommitClaim(ctx, claim)
			require.NoError(t, err)
		}

		found, err := testDB.GetLastClaim(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, found.ID)
	})

	t.Run("duplicate claim id", func(t *testing.T) {
		address := testutil.RandomWalletAddress()
		_, err := testDB.UpsertVerification(ctx, address, "subject", "name")
		require.NoError(t, err)

		claim := testutil.RandomClaimRecord(address, time.Now().UTC())
		_, err = testDB.CommitClaim(ctx, claim)
		require.NoError(t, err)

		_, err = testDB.CommitClaim(ctx, claim)
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKeyError(err))
	})

	t.Run("returning claimer does not bump total claimers", func(t *testing.T) {
		resetDatabase(t)

		address := testutil.RandomWalletAddress()
		_, err := testDB.UpsertVerification(ctx, address, "subject", "name")
		require.NoError(t, err)

		_, err = testDB.CommitClaim(ctx, testutil.RandomClaimRecord(address, time.Now().UTC().Add(-24*time.Hour)))
		require.NoError(t, err)
		_, err = testDB.CommitClaim(ctx, testutil.RandomClaimRecord(address, time.Now().UTC()))
		require.NoError(t, err)

		stats, err := testDB.GetFaucetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), stats.TotalClaimers)
	})
}
