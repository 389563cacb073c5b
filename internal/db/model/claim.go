package model

import (
	"time"

	"cosmossdk.io/math"
)

const ClaimCollection = "faucet_claims"

// ClaimRecord is an append-only ledger entry for one successful disbursement.
// Records are never mutated or deleted once written.
type ClaimRecord struct {
	ID        string    `bson:"_id"`
	Address   string    `bson:"address"`
	Amount    string    `bson:"amount"`
	TxHash    string    `bson:"tx_hash"`
	ClaimedAt time.Time `bson:"claimed_at"`
}

func (c *ClaimRecord) AmountDec() math.LegacyDec {
	return parseDec(c.Amount)
}
