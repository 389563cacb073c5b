package services

import (
	"context"
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/internal/observability/metrics"
	"github.com/vikingheim/odin-rewards/internal/types"
	"github.com/vikingheim/odin-rewards/pkg"
)

const claimCooldown = 24 * time.Hour

// claimAmountStr is the fixed faucet disbursement per claim.
const claimAmountStr = "0.05"

func claimAmount() math.LegacyDec {
	return math.LegacyMustNewDecFromStr(claimAmountStr)
}

// ClaimResult is the successful outcome of one faucet claim.
type ClaimResult struct {
	ClaimID     string
	TxHash      string
	Amount      math.LegacyDec
	Balance     math.LegacyDec
	ClaimedAt   time.Time
	NextClaimAt time.Time
}

// Claim runs the faucet pipeline for one wallet: verify identity binding,
// enforce the cooldown, disburse on chain and commit the ledger entry. The
// disbursement happens outside the account lock so a slow chain cannot stall
// unrelated reads, while the in-flight marker keeps a second claim from
// passing eligibility in the meantime.
func (s *Service) Claim(ctx context.Context, walletAddress string) (*ClaimResult, *types.Error) {
	start := s.now()
	phase := types.PhaseStart

	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		s.observeClaim(types.ValidationFailedError, start)
		return nil, types.NewValidationFailedError(err)
	}

	logger := log.Ctx(ctx).With().Str("address", address).Logger()

	unlock := s.lockAccount(address)

	phase = types.NextPhase(phase)
	account, getErr := s.db.GetAccountByAddress(ctx, address)
	if getErr != nil {
		unlock()
		if db.IsNotFoundError(getErr) {
			s.observeClaim(types.VerificationRequired, start)
			return nil, types.NewVerificationRequiredError()
		}
		s.observeClaim(types.InternalServiceError, start)
		return nil, types.NewInternalServiceError(getErr)
	}
	if !account.Verified {
		unlock()
		s.observeClaim(types.VerificationRequired, start)
		return nil, types.NewVerificationRequiredError()
	}

	phase = types.NextPhase(phase)
	if account.LastClaimAt != nil {
		nextEligible := account.LastClaimAt.Add(claimCooldown)
		if remaining := nextEligible.Sub(s.now()); remaining > 0 {
			unlock()
			s.observeClaim(types.OnCooldown, start)
			return nil, types.NewOnCooldownError(remaining)
		}
	}

	if !s.markClaimInflight(address) {
		// A disbursement for this account is already between check and commit.
		unlock()
		s.observeClaim(types.OnCooldown, start)
		return nil, types.NewOnCooldownError(claimCooldown)
	}
	defer s.clearClaimInflight(address)
	metrics.IncInflightClaims()
	defer metrics.DecInflightClaims()
	unlock()

	phase = types.NextPhase(phase)
	amount := claimAmount()
	logger.Debug().Str("phase", phase.String()).Str("amount", amount.String()).
		Msg("Disbursing claim")

	receipt, sendErr := s.chain.SendFunds(ctx, address, amount)
	if sendErr != nil {
		metrics.IncDisbursementError()
		s.observeClaim(types.DisbursementFailed, start)
		logger.Error().Err(sendErr).Msg("Disbursement failed, no state changed")
		return nil, types.NewDisbursementFailedError(sendErr)
	}

	phase = types.NextPhase(phase)
	claimedAt := s.now()
	claim := &model.ClaimRecord{
		ID:        uuid.New().String(),
		Address:   address,
		Amount:    amount.String(),
		TxHash:    receipt.TxHash,
		ClaimedAt: claimedAt,
	}

	unlock = s.lockAccount(address)
	account, commitErr := s.db.CommitClaim(ctx, claim)
	unlock()
	if commitErr != nil {
		// The transfer is already confirmed on chain. This claim is lost from
		// the ledger until an operator reconciles it from the tx hash.
		metrics.IncCommitFailure()
		s.observeClaim(types.CommitFailed, start)
		logger.Error().Err(commitErr).
			Str("claim_id", claim.ID).
			Str("tx_hash", receipt.TxHash).
			Str("amount", amount.String()).
			Msg("Ledger commit failed after confirmed disbursement, manual reconciliation required")
		return nil, types.NewCommitFailedError(commitErr)
	}

	phase = types.NextPhase(phase)
	s.publishEvent(ctx, types.EventFaucetClaimProcessed, &types.ClaimProcessedEvent{
		EventType:     types.EventFaucetClaimProcessed.String(),
		ClaimID:       claim.ID,
		WalletAddress: address,
		Amount:        amount.String(),
		TxHash:        receipt.TxHash,
		ClaimedAt:     claimedAt,
	})

	metrics.ObserveClaimDuration(metrics.Success, s.now().Sub(start))
	metrics.IncClaimsTotal(metrics.Success.String())
	logger.Info().
		Str("phase", phase.String()).
		Str("claim_id", claim.ID).
		Str("tx_hash", receipt.TxHash).
		Msg("Claim processed")

	return &ClaimResult{
		ClaimID:     claim.ID,
		TxHash:      receipt.TxHash,
		Amount:      amount,
		Balance:     account.BalanceDec(),
		ClaimedAt:   claimedAt,
		NextClaimAt: claimedAt.Add(claimCooldown),
	}, nil
}

// ClaimStatus reports the wallet's current eligibility without mutating state.
// LastClaim is the newest ledger record backing the account watermark, carrying
// the tx hash and amount of the previous disbursement.
type ClaimStatus struct {
	Eligible    bool
	Remaining   time.Duration
	LastClaimAt *time.Time
	LastClaim   *model.ClaimRecord
}

func (s *Service) GetClaimStatus(ctx context.Context, walletAddress string) (*ClaimStatus, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	account, getErr := s.db.GetAccountByAddress(ctx, address)
	if getErr != nil {
		if db.IsNotFoundError(getErr) {
			return &ClaimStatus{Eligible: false}, nil
		}
		return nil, types.NewInternalServiceError(getErr)
	}
	if !account.Verified {
		return &ClaimStatus{Eligible: false, LastClaimAt: account.LastClaimAt}, nil
	}

	status := &ClaimStatus{Eligible: true, LastClaimAt: account.LastClaimAt}
	if account.LastClaimAt != nil {
		lastClaim, claimErr := s.db.GetLastClaim(ctx, address)
		if claimErr != nil && !db.IsNotFoundError(claimErr) {
			return nil, types.NewInternalServiceError(claimErr)
		}
		status.LastClaim = lastClaim
		if remaining := account.LastClaimAt.Add(claimCooldown).Sub(s.now()); remaining > 0 {
			status.Eligible = false
			status.Remaining = remaining
		}
	}

	return status, nil
}

func (s *Service) observeClaim(code types.ErrorCode, start time.Time) {
	metrics.ObserveClaimDuration(metrics.Error, s.now().Sub(start))
	metrics.IncClaimsTotal(code.String())
}
