package types

import "time"

type EventTypes string

func (e EventTypes) String() string {
	return string(e)
}

const (
	EventFaucetClaimProcessed EventTypes = "odin.faucet.v1.EventClaimProcessed"
	EventRewardsSettled       EventTypes = "odin.staking.v1.EventRewardsSettled"
	EventItemStaked           EventTypes = "odin.staking.v1.EventItemStaked"
	EventItemUnstaked         EventTypes = "odin.staking.v1.EventItemUnstaked"
)

// ClaimProcessedEvent is published after a claim has been disbursed and committed.
type ClaimProcessedEvent struct {
	EventType     string    `json:"event_type"`
	ClaimID       string    `json:"claim_id"`
	WalletAddress string    `json:"wallet_address"`
	Amount        string    `json:"amount"`
	TxHash        string    `json:"tx_hash"`
	ClaimedAt     time.Time `json:"claimed_at"`
}

// RewardsSettledEvent is published after an account's accrued rewards have been
// folded into its balance.
type RewardsSettledEvent struct {
	EventType     string    `json:"event_type"`
	WalletAddress string    `json:"wallet_address"`
	Amount        string    `json:"amount"`
	Positions     int       `json:"positions"`
	SettledAt     time.Time `json:"settled_at"`
}

// StakingChangedEvent is published on stake and unstake transitions.
type StakingChangedEvent struct {
	EventType     string    `json:"event_type"`
	ItemID        string    `json:"item_id"`
	WalletAddress string    `json:"wallet_address"`
	OccurredAt    time.Time `json:"occurred_at"`
}
