package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/pkg"
)

// RandomWalletAddress returns a random lowercase hex wallet address in the
// canonical form the stores expect.
func RandomWalletAddress() string {
	return randomHex(160, 40)
}

// RandomTxHash returns a random 32-byte transaction hash.
func RandomTxHash() string {
	return randomHex(256, 64)
}

// randomHex left-pads because HexUint drops leading zeros.
func randomHex(bits, digits int) string {
	h := strings.ToLower(gofakeit.HexUint(bits)[2:])
	return "0x" + strings.Repeat("0", digits-len(h)) + h
}

func RandomAccount() *model.Account {
	return &model.Account{
		Address:     RandomWalletAddress(),
		Balance:     "0",
		Verified:    true,
		SubjectID:   gofakeit.UUID(),
		DisplayName: gofakeit.Username(),
		CreatedAt:   time.Now().UTC(),
	}
}

func RandomItem(ownerAddress string) *model.Item {
	item := &model.Item{
		ID:        uuid.New().String(),
		TokenID:   fmt.Sprintf("%d", gofakeit.Number(1, 10000)),
		Name:      gofakeit.Gamertag(),
		CreatedAt: time.Now().UTC(),
	}
	if ownerAddress != "" {
		item.OwnerAddress = pkg.Ptr(ownerAddress)
	}
	return item
}

func RandomClaimRecord(address string, claimedAt time.Time) *model.ClaimRecord {
	return &model.ClaimRecord{
		ID:        uuid.New().String(),
		Address:   address,
		Amount:    "0.05",
		TxHash:    RandomTxHash(),
		ClaimedAt: claimedAt,
	}
}
