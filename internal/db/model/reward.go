package model

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

const RewardAccrualCollection = "reward_accruals"

// RewardAccrual tracks the unsettled reward for one (account, item) pair.
// Earned only grows between settlements; settlement zeroes it atomically with
// the matching balance credit. LastAccruedAt marks how far accrual has been
// applied so repeated ticks never double count an interval.
type RewardAccrual struct {
	ID            string    `bson:"_id"`
	OwnerAddress  string    `bson:"owner_address"`
	ItemID        string    `bson:"item_id"`
	Earned        string    `bson:"earned"`
	LastAccruedAt time.Time `bson:"last_accrued_at"`
	LastSettledAt time.Time `bson:"last_settled_at"`
	CreatedAt     time.Time `bson:"created_at"`
}

func (r *RewardAccrual) EarnedDec() math.LegacyDec {
	return parseDec(r.Earned)
}

// RewardAccrualID builds the composite document id for an (owner, item) pair,
// making the pair unique by construction.
func RewardAccrualID(ownerAddress, itemID string) string {
	return fmt.Sprintf("%s:%s", ownerAddress, itemID)
}
