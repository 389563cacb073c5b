package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/clients/chainclient"
	"github.com/vikingheim/odin-rewards/internal/clients/discordclient"
	"github.com/vikingheim/odin-rewards/internal/config"
	"github.com/vikingheim/odin-rewards/internal/db"
	"github.com/vikingheim/odin-rewards/internal/queue"
	"github.com/vikingheim/odin-rewards/internal/types"
)

// Service wires the eligibility rules, the reward engine and the stats
// aggregation on top of the storage and the external collaborators.
type Service struct {
	cfg          *config.Config
	db           db.DbInterface
	verifier     discordclient.DiscordInterface
	chain        chainclient.ChainInterface
	queueManager *queue.QueueManager

	// now is replaceable in tests.
	now func() time.Time

	mu sync.Mutex
	// accountLocks serializes claim and settlement pipelines per account.
	accountLocks map[string]*sync.Mutex
	// inflightClaims marks accounts with a disbursement in flight, so a second
	// claim cannot slip through the cooldown check while the first one is
	// between disbursement and commit.
	inflightClaims map[string]struct{}
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	verifier discordclient.DiscordInterface,
	chain chainclient.ChainInterface,
	queueManager *queue.QueueManager,
) *Service {
	return &Service{
		cfg:            cfg,
		db:             db,
		verifier:       verifier,
		chain:          chain,
		queueManager:   queueManager,
		now:            time.Now,
		accountLocks:   make(map[string]*sync.Mutex),
		inflightClaims: make(map[string]struct{}),
	}
}

// lockAccount acquires the per-account mutex and returns its release func.
func (s *Service) lockAccount(address string) func() {
	s.mu.Lock()
	lock, ok := s.accountLocks[address]
	if !ok {
		lock = &sync.Mutex{}
		s.accountLocks[address] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *Service) markClaimInflight(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.inflightClaims[address]; exists {
		return false
	}
	s.inflightClaims[address] = struct{}{}
	return true
}

func (s *Service) clearClaimInflight(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflightClaims, address)
}

// publishEvent is best effort. The ledger is the source of truth; a lost
// event never fails the operation that produced it.
func (s *Service) publishEvent(ctx context.Context, eventType types.EventTypes, event any) {
	if s.queueManager == nil {
		return
	}
	if err := s.queueManager.PublishEvent(ctx, eventType, event); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("event_type", eventType.String()).
			Msg("Failed to publish event")
	}
}
