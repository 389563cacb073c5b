package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vikingheim/odin-rewards/internal/db/model"
)

func (db *Database) GetRewardAccrual(
	ctx context.Context, ownerAddress, itemID string,
) (*model.RewardAccrual, error) {
	id := model.RewardAccrualID(ownerAddress, itemID)
	res := db.collection(model.RewardAccrualCollection).FindOne(ctx, bson.M{"_id": id})

	var accrual model.RewardAccrual
	if err := res.Decode(&accrual); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     id,
				Message: "reward accrual not found for owner and item",
			}
		}
		return nil, err
	}

	return &accrual, nil
}

func (db *Database) CreateRewardAccrual(
	ctx context.Context, accrual *model.RewardAccrual,
) error {
	_, err := db.collection(model.RewardAccrualCollection).InsertOne(ctx, accrual)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     accrual.ID,
				Message: "reward accrual already exists for owner and item",
			}
		}
		return err
	}
	return nil
}

func (db *Database) UpdateRewardAccrual(
	ctx context.Context, ownerAddress, itemID string, earned math.LegacyDec, accruedAt time.Time,
) error {
	id := model.RewardAccrualID(ownerAddress, itemID)
	update := bson.M{
		"$set": bson.M{
			"earned":          earned.String(),
			"last_accrued_at": accruedAt,
		},
	}

	res, err := db.collection(model.RewardAccrualCollection).
		UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     id,
			Message: "reward accrual not found when updating earned amount",
		}
	}
	return nil
}

func (db *Database) ListRewardAccrualsByOwner(
	ctx context.Context, ownerAddress string,
) ([]*model.RewardAccrual, error) {
	cursor, err := db.collection(model.RewardAccrualCollection).
		Find(ctx, bson.M{"owner_address": ownerAddress})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accruals []*model.RewardAccrual
	if err := cursor.All(ctx, &accruals); err != nil {
		return nil, err
	}
	return accruals, nil
}

// SettleRewards zeroes every accrual owned by the account, credits the summed
// total to the balance and bumps the monotonic distributed counter, all in one
// transaction. The caller computes total from the same accrual set under the
// account's exclusive scope, so the zeroed amount always equals the credit.
func (db *Database) SettleRewards(
	ctx context.Context, ownerAddress string, total math.LegacyDec, settledAt time.Time,
) (*model.Account, error) {
	result, err := db.withTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		zero := math.LegacyZeroDec().String()
		if _, err := db.collection(model.RewardAccrualCollection).UpdateMany(
			sessCtx,
			bson.M{"owner_address": ownerAddress},
			bson.M{"$set": bson.M{
				"earned":          zero,
				"last_settled_at": settledAt,
				"last_accrued_at": settledAt,
			}},
		); err != nil {
			return nil, err
		}

		account, err := db.AdjustBalance(sessCtx, ownerAddress, total)
		if err != nil {
			return nil, err
		}

		if err := db.addRewardsDistributed(sessCtx, total); err != nil {
			return nil, err
		}

		return account, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle rewards for %s: %w", ownerAddress, err)
	}

	return result.(*model.Account), nil
}
