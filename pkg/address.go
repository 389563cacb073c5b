package pkg

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress validates an EVM wallet address and returns its canonical
// lowercase form. All store lookups and lock keys use the canonical form so
// checksummed and lowercase spellings of the same wallet resolve to one account.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid wallet address: %q", address)
	}

	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}
