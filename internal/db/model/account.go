package model

import (
	"time"

	"cosmossdk.io/math"
)

const AccountCollection = "accounts"

// Account is one record per wallet identity. The canonical lowercase wallet
// address is the document id, so a wallet can never have two accounts.
type Account struct {
	Address     string     `bson:"_id"`
	Balance     string     `bson:"balance"`
	Verified    bool       `bson:"verified"`
	SubjectID   string     `bson:"subject_id,omitempty"`
	DisplayName string     `bson:"display_name,omitempty"`
	LastClaimAt *time.Time `bson:"last_claim_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
}

// BalanceDec parses the stored balance. Balances are only ever written from
// LegacyDec.String(), so a parse failure means corrupt data; it is treated as
// zero rather than panicking in a read path.
func (a *Account) BalanceDec() math.LegacyDec {
	return parseDec(a.Balance)
}

func parseDec(s string) math.LegacyDec {
	if s == "" {
		return math.LegacyZeroDec()
	}
	d, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return math.LegacyZeroDec()
	}
	return d
}
