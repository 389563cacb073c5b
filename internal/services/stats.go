package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/internal/types"
)

// GlobalStats is the site-wide counter snapshot.
type GlobalStats struct {
	TotalItems              uint64
	TotalStaked             uint64
	TotalHolders            uint64
	TotalRewardsDistributed string
	TotalDisbursed          string
	TotalClaimers           uint64
	ClaimsToday             uint64
}

// computeGlobalStats recomputes the snapshot from the live collections and
// the incrementally maintained counter documents.
func (s *Service) computeGlobalStats(ctx context.Context) (*GlobalStats, error) {
	totalItems, totalStaked, totalHolders, err := s.db.CalculateCollectionStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate collection stats: %w", err)
	}

	faucetStats, err := s.db.GetFaucetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load faucet stats: %w", err)
	}

	rewardStats, err := s.db.GetRewardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reward stats: %w", err)
	}

	claimsToday := faucetStats.ClaimsToday
	if faucetStats.Day != s.now().UTC().Format("2006-01-02") {
		// Counter belongs to an older day bucket and rolls on the next claim.
		claimsToday = 0
	}

	return &GlobalStats{
		TotalItems:              totalItems,
		TotalStaked:             totalStaked,
		TotalHolders:            totalHolders,
		TotalRewardsDistributed: rewardStats.TotalDistributedDec().String(),
		TotalDisbursed:          faucetStats.TotalDisbursedDec().String(),
		TotalClaimers:           faucetStats.TotalClaimers,
		ClaimsToday:             claimsToday,
	}, nil
}

// GetGlobalStats serves the cached snapshot maintained by the stats poller,
// recomputing live only when no snapshot exists yet.
func (s *Service) GetGlobalStats(ctx context.Context) (*GlobalStats, *types.Error) {
	doc, err := s.db.GetOverallStats(ctx)
	if err == nil {
		stats := &GlobalStats{
			TotalItems:              doc.TotalItems,
			TotalStaked:             doc.TotalStaked,
			TotalHolders:            doc.TotalHolders,
			TotalRewardsDistributed: doc.TotalRewardsDistributed,
			TotalDisbursed:          doc.TotalDisbursed,
			TotalClaimers:           doc.TotalClaimers,
		}
		// ClaimsToday is too volatile for the snapshot, read it live.
		if faucetStats, statsErr := s.db.GetFaucetStats(ctx); statsErr == nil {
			if faucetStats.Day == s.now().UTC().Format("2006-01-02") {
				stats.ClaimsToday = faucetStats.ClaimsToday
			}
		}
		return stats, nil
	}
	if !db.IsNotFoundError(err) {
		return nil, types.NewInternalServiceError(err)
	}

	stats, computeErr := s.computeGlobalStats(ctx)
	if computeErr != nil {
		return nil, types.NewInternalServiceError(computeErr)
	}

	return stats, nil
}

// RefreshOverallStats recomputes the snapshot document. Run periodically by
// the stats poller.
func (s *Service) RefreshOverallStats(ctx context.Context) error {
	stats, err := s.computeGlobalStats(ctx)
	if err != nil {
		return err
	}

	doc := &model.OverallStatsDocument{
		ID:                      model.OverallStatsDocID,
		TotalItems:              stats.TotalItems,
		TotalStaked:             stats.TotalStaked,
		TotalHolders:            stats.TotalHolders,
		TotalRewardsDistributed: stats.TotalRewardsDistributed,
		TotalDisbursed:          stats.TotalDisbursed,
		TotalClaimers:           stats.TotalClaimers,
		LastUpdated:             s.now().Unix(),
	}
	if err := s.db.UpsertOverallStats(ctx, doc); err != nil {
		return fmt.Errorf("failed to upsert overall stats: %w", err)
	}

	log.Ctx(ctx).Debug().Msg("Refreshed overall stats snapshot")
	return nil
}
