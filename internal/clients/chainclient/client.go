package chainclient

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/config"
	"github.com/vikingheim/odin-rewards/pkg"
)

const transferGasLimit = uint64(21000)

var weiPerToken = math.LegacyNewDec(1e18)

type Client struct {
	cfg    *config.ChainConfig
	eth    *ethclient.Client
	key    *ecdsa.PrivateKey
	sender common.Address

	// chainID is cached after the first successful lookup.
	chainID *big.Int

	// Serializes disbursements so the nonce fetched from the node is always
	// the next one to use.
	mu sync.Mutex
}

func New(ctx context.Context, cfg *config.ChainConfig) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}

	keyHex := pkg.Getenv(cfg.FaucetKeyEnv, "")
	if keyHex == "" {
		return nil, fmt.Errorf("faucet key env %s is not set", cfg.FaucetKeyEnv)
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse faucet key: %w", err)
	}

	return &Client{
		cfg:    cfg,
		eth:    eth,
		key:    key,
		sender: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (c *Client) SendFunds(
	ctx context.Context, toAddress string, amount math.LegacyDec,
) (*TransferReceipt, error) {
	if !common.IsHexAddress(toAddress) {
		return nil, fmt.Errorf("invalid recipient address: %s", toAddress)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("transfer amount must be positive, got %s", amount)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	chainID, err := c.networkID(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.sender)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	to := common.HexToAddress(toAddress)
	value := amount.Mul(weiPerToken).TruncateInt().BigInt()

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	log.Ctx(ctx).Debug().
		Str("tx_hash", signedTx.Hash().Hex()).
		Str("to", to.Hex()).
		Str("amount", amount.String()).
		Msg("Broadcast transfer, waiting for confirmation")

	receipt, err := bind.WaitMined(ctx, c.eth, signedTx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for transaction %s: %w", signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", signedTx.Hash().Hex())
	}

	return &TransferReceipt{TxHash: signedTx.Hash().Hex()}, nil
}

// networkID is called with c.mu held.
func (c *Client) networkID(ctx context.Context) (*big.Int, error) {
	if c.chainID != nil {
		return c.chainID, nil
	}

	chainID, err := c.eth.NetworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch network id: %w", err)
	}
	c.chainID = chainID

	return c.chainID, nil
}
