package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	t.Run("checksummed and lowercase forms canonicalize equally", func(t *testing.T) {
		checksummed, err := NormalizeAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
		require.NoError(t, err)

		lowercase, err := NormalizeAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
		require.NoError(t, err)

		assert.Equal(t, checksummed, lowercase)
		assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", lowercase)
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		for _, addr := range []string{"", "0x123", "not-an-address", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaedff"} {
			_, err := NormalizeAddress(addr)
			assert.Error(t, err, "expected %q to be rejected", addr)
		}
	})

	t.Run("accepts unprefixed hex", func(t *testing.T) {
		got, err := NormalizeAddress("5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
		require.NoError(t, err)
		assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", got)
	})
}
