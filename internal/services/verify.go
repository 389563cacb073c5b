package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/clients/discordclient"
	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/types"
	"github.com/vikingheim/odin-rewards/pkg"
)

// VerifyResult reports the account state after a successful identity binding.
type VerifyResult struct {
	Address     string
	DisplayName string
	Verified    bool
}

// Verify binds a wallet address to the Discord identity behind the OAuth
// authorization code. Verification is monotonic: re-verifying updates the
// identity binding but never clears the verified flag.
func (s *Service) Verify(ctx context.Context, walletAddress, code string) (*VerifyResult, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	identity, verifyErr := s.verifier.Verify(ctx, code)
	if verifyErr != nil {
		switch {
		case errors.Is(verifyErr, discordclient.ErrInvalidCode):
			return nil, types.NewValidationFailedError(verifyErr)
		case errors.Is(verifyErr, discordclient.ErrNotGuildMember),
			errors.Is(verifyErr, discordclient.ErrMissingRole):
			return nil, types.NewError(http.StatusForbidden, types.VerificationRequired, verifyErr)
		default:
			return nil, types.NewInternalServiceError(verifyErr)
		}
	}

	account, upsertErr := s.db.UpsertVerification(ctx, address, identity.SubjectID, identity.DisplayName)
	if upsertErr != nil {
		return nil, types.NewInternalServiceError(upsertErr)
	}

	log.Ctx(ctx).Info().
		Str("address", address).
		Str("subject_id", identity.SubjectID).
		Msg("Wallet verified")

	return &VerifyResult{
		Address:     account.Address,
		DisplayName: account.DisplayName,
		Verified:    account.Verified,
	}, nil
}

// AccountDetails is the read model for one wallet account.
type AccountDetails struct {
	Address     string
	Balance     string
	Verified    bool
	DisplayName string
	LastClaimAt *time.Time
}

func (s *Service) GetAccount(ctx context.Context, walletAddress string) (*AccountDetails, *types.Error) {
	address, err := pkg.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, types.NewValidationFailedError(err)
	}

	account, getErr := s.db.GetAccountByAddress(ctx, address)
	if getErr != nil {
		if db.IsNotFoundError(getErr) {
			return nil, types.NewNotFoundError(getErr)
		}
		return nil, types.NewInternalServiceError(getErr)
	}

	return &AccountDetails{
		Address:     account.Address,
		Balance:     account.BalanceDec().String(),
		Verified:    account.Verified,
		DisplayName: account.DisplayName,
		LastClaimAt: account.LastClaimAt,
	}, nil
}
