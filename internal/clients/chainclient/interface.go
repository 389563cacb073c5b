package chainclient

import (
	"context"

	"cosmossdk.io/math"
)

// TransferReceipt reports a confirmed on-chain transfer.
type TransferReceipt struct {
	TxHash string
}

type ChainInterface interface {
	// SendFunds transfers amount (denominated in whole tokens) from the faucet
	// wallet to the given address and waits for the transaction to be mined.
	SendFunds(ctx context.Context, toAddress string, amount math.LegacyDec) (*TransferReceipt, error)
}
