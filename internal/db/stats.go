package db

import (
	"context"
	"errors"

	"cosmossdk.io/math"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vikingheim/odin-rewards/internal/db/model"
)

func (db *Database) GetFaucetStats(ctx context.Context) (*model.FaucetStatsDocument, error) {
	res := db.collection(model.FaucetStatsCollection).
		FindOne(ctx, bson.M{"_id": model.FaucetStatsDocID})

	var stats model.FaucetStatsDocument
	if err := res.Decode(&stats); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &model.FaucetStatsDocument{
				ID:             model.FaucetStatsDocID,
				TotalDisbursed: math.LegacyZeroDec().String(),
			}, nil
		}
		return nil, err
	}

	return &stats, nil
}

func (db *Database) GetRewardStats(ctx context.Context) (*model.RewardStatsDocument, error) {
	res := db.collection(model.RewardStatsCollection).
		FindOne(ctx, bson.M{"_id": model.RewardStatsDocID})

	var stats model.RewardStatsDocument
	if err := res.Decode(&stats); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &model.RewardStatsDocument{
				ID:               model.RewardStatsDocID,
				TotalDistributed: math.LegacyZeroDec().String(),
			}, nil
		}
		return nil, err
	}

	return &stats, nil
}

func (db *Database) addRewardsDistributed(ctx context.Context, amount math.LegacyDec) error {
	stats, err := db.GetRewardStats(ctx)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"total_distributed": stats.TotalDistributedDec().Add(amount).String(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err = db.collection(model.RewardStatsCollection).
		UpdateOne(ctx, bson.M{"_id": model.RewardStatsDocID}, update, opts)
	return err
}

// CalculateCollectionStats computes the item counters with aggregation rather
// than loading the catalogue into memory.
func (db *Database) CalculateCollectionStats(
	ctx context.Context,
) (totalItems, totalStaked, totalHolders uint64, err error) {
	collection := db.collection(model.ItemCollection)

	items, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, 0, err
	}

	staked, err := collection.CountDocuments(ctx, bson.M{"staked": true})
	if err != nil {
		return 0, 0, 0, err
	}

	owners, err := collection.Distinct(ctx, "owner_address", bson.M{
		"owner_address": bson.M{"$nin": bson.A{nil, ""}},
	})
	if err != nil {
		return 0, 0, 0, err
	}

	return uint64(items), uint64(staked), uint64(len(owners)), nil
}

func (db *Database) UpsertOverallStats(
	ctx context.Context, doc *model.OverallStatsDocument,
) error {
	update := bson.M{
		"$set": bson.M{
			"total_items":               doc.TotalItems,
			"total_staked":              doc.TotalStaked,
			"total_holders":             doc.TotalHolders,
			"total_rewards_distributed": doc.TotalRewardsDistributed,
			"total_disbursed":           doc.TotalDisbursed,
			"total_claimers":            doc.TotalClaimers,
			"last_updated":              doc.LastUpdated,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.OverallStatsCollection).
		UpdateOne(ctx, bson.M{"_id": model.OverallStatsDocID}, update, opts)
	return err
}

func (db *Database) GetOverallStats(ctx context.Context) (*model.OverallStatsDocument, error) {
	res := db.collection(model.OverallStatsCollection).
		FindOne(ctx, bson.M{"_id": model.OverallStatsDocID})

	var stats model.OverallStatsDocument
	if err := res.Decode(&stats); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     model.OverallStatsDocID,
				Message: "overall stats snapshot not computed yet",
			}
		}
		return nil, err
	}

	return &stats, nil
}
