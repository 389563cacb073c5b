package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vikingheim/odin-rewards/internal/db/model"
)

const adjustBalanceMaxAttempts = 3

func (db *Database) GetAccountByAddress(
	ctx context.Context, address string,
) (*model.Account, error) {
	res := db.collection(model.AccountCollection).
		FindOne(ctx, bson.M{"_id": address})

	var account model.Account
	if err := res.Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     address,
				Message: "account not found by wallet address",
			}
		}
		return nil, err
	}

	return &account, nil
}

func (db *Database) UpsertVerification(
	ctx context.Context, address, subjectID, displayName string,
) (*model.Account, error) {
	filter := bson.M{"_id": address}
	update := bson.M{
		"$set": bson.M{
			"verified":     true,
			"subject_id":   subjectID,
			"display_name": displayName,
		},
		"$setOnInsert": bson.M{
			"balance":    math.LegacyZeroDec().String(),
			"created_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	res := db.collection(model.AccountCollection).
		FindOneAndUpdate(ctx, filter, update, opts)
	if res.Err() != nil {
		return nil, res.Err()
	}

	var account model.Account
	if err := res.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}

// AdjustBalance applies the delta with a compare-and-swap on the stored
// balance string. The service serializes writers per account, so contention
// here only arises from out-of-process writers; a few attempts suffice.
func (db *Database) AdjustBalance(
	ctx context.Context, address string, delta math.LegacyDec,
) (*model.Account, error) {
	for attempt := 0; attempt < adjustBalanceMaxAttempts; attempt++ {
		account, err := db.GetAccountByAddress(ctx, address)
		if err != nil {
			return nil, err
		}

		newBalance := account.BalanceDec().Add(delta)
		if newBalance.IsNegative() {
			return nil, &InsufficientBalanceError{
				Key: address,
				Message: fmt.Sprintf(
					"balance adjustment by %s would leave %s negative",
					delta.String(), account.Balance,
				),
			}
		}

		filter := bson.M{"_id": address, "balance": account.Balance}
		update := bson.M{"$set": bson.M{"balance": newBalance.String()}}
		res, err := db.collection(model.AccountCollection).
			UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			account.Balance = newBalance.String()
			return account, nil
		}
		// Balance moved underneath us; reread and retry.
	}

	return nil, fmt.Errorf("balance adjustment for %s did not converge", address)
}
