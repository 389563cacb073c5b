package model

import "cosmossdk.io/math"

const (
	FaucetStatsCollection  = "faucet_stats"
	RewardStatsCollection  = "reward_stats"
	OverallStatsCollection = "overall_stats"

	FaucetStatsDocID  = "faucet_stats"
	RewardStatsDocID  = "reward_stats"
	OverallStatsDocID = "overall_stats"
)

// FaucetStatsDocument holds incrementally maintained faucet counters, bumped
// inside the claim commit.
type FaucetStatsDocument struct {
	ID             string `bson:"_id"`
	TotalDisbursed string `bson:"total_disbursed"`
	TotalClaimers  uint64 `bson:"total_claimers"`
	ClaimsToday    uint64 `bson:"claims_today"`
	// Day is the UTC date (2006-01-02) the ClaimsToday counter belongs to.
	Day string `bson:"day"`
}

func (s *FaucetStatsDocument) TotalDisbursedDec() math.LegacyDec {
	return parseDec(s.TotalDisbursed)
}

// RewardStatsDocument holds the monotonic total of rewards ever settled into
// balances. Maintained alongside settlement, not recomputed from live accruals,
// since those are zeroed when settled.
type RewardStatsDocument struct {
	ID               string `bson:"_id"`
	TotalDistributed string `bson:"total_distributed"`
}

func (s *RewardStatsDocument) TotalDistributedDec() math.LegacyDec {
	return parseDec(s.TotalDistributed)
}

// OverallStatsDocument is the periodically refreshed snapshot of the global
// counters, upserted by the stats poller.
type OverallStatsDocument struct {
	ID                      string `bson:"_id"`
	TotalItems              uint64 `bson:"total_items"`
	TotalStaked             uint64 `bson:"total_staked"`
	TotalHolders            uint64 `bson:"total_holders"`
	TotalRewardsDistributed string `bson:"total_rewards_distributed"`
	TotalDisbursed          string `bson:"total_disbursed"`
	TotalClaimers           uint64 `bson:"total_claimers"`
	LastUpdated             int64  `bson:"last_updated"`
}
