package model

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vikingheim/odin-rewards/internal/config"
)

const setupTimeout = 30 * time.Second

var collections = map[string][]mongo.IndexModel{
	AccountCollection: {
		{Keys: bson.D{{Key: "subject_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	},
	ClaimCollection: {
		{Keys: bson.D{{Key: "address", Value: 1}, {Key: "claimed_at", Value: -1}}},
	},
	ItemCollection: {
		{Keys: bson.D{{Key: "owner_address", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "staked", Value: 1}}},
	},
	RewardAccrualCollection: {
		{Keys: bson.D{{Key: "owner_address", Value: 1}}},
	},
	FaucetStatsCollection:  nil,
	RewardStatsCollection:  nil,
	OverallStatsCollection: nil,
}

// Setup creates the collections and indexes the service relies on. Safe to run
// repeatedly; index creation is idempotent.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" {
		clientOps = clientOps.SetAuth(credential)
	}
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()
	defer func() {
		_ = client.Disconnect(ctx)
	}()

	database := client.Database(cfg.DbName)
	for name, indexes := range collections {
		// CreateCollection errors if the collection already exists; that is fine.
		_ = database.CreateCollection(ctx, name)
		if len(indexes) == 0 {
			continue
		}
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}

	return nil
}
