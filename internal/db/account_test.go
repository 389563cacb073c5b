//go:build integration

package db_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/testutil"
)

func TestAccount(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("get missing account", func(t *testing.T) {
		account, err := testDB.GetAccountByAddress(ctx, testutil.RandomWalletAddress())
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, account)
	})

	t.Run("upsert verification", func(t *testing.T) {
		address := testutil.RandomWalletAddress()

		account, err := testDB.UpsertVerification(ctx, address, "subject-1", "first")
		require.NoError(t, err)
		assert.Equal(t, address, account.Address)
		assert.True(t, account.Verified)
		assert.True(t, account.BalanceDec().IsZero())
		assert.False(t, account.CreatedAt.IsZero())

		// rebind keeps the account, updates the identity
		account, err = testDB.UpsertVerification(ctx, address, "subject-2", "second")
		require.NoError(t, err)
		assert.True(t, account.Verified)
		assert.Equal(t, "subject-2", account.SubjectID)
		assert.Equal(t, "second", account.DisplayName)
	})

	t.Run("adjust balance", func(t *testing.T) {
		address := testutil.RandomWalletAddress()
		_, err := testDB.UpsertVerification(ctx, address, "subject", "name")
		require.NoError(t, err)

		account, err := testDB.AdjustBalance(ctx, address, math.LegacyMustNewDecFromStr("1.25"))
		require.NoError(t, err)
		assert.True(t, account.BalanceDec().Equal(math.LegacyMustNewDecFromStr("1.25")))

		account, err = testDB.AdjustBalance(ctx, address, math.LegacyMustNewDecFromStr("-0.25"))
		require.NoError(t, err)
		assert.True(t, account.BalanceDec().Equal(math.LegacyOneDec()))

		// going negative fails and leaves the balance untouched
		_, err = testDB.AdjustBalance(ctx, address, math.LegacyNewDec(-2))
		require.Error(t, err)
		assert.True(t, db.IsInsufficientBalanceError(err))

		account, err = testDB.GetAccountByAddress(ctx, address)
		require.NoError(t, err)
		assert.True(t, account.BalanceDec().Equal(math.LegacyOneDec()))
	})
}
