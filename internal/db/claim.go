package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vikingheim/odin-rewards/internal/db/model"
)

const dayFormat = "2006-01-02"

func (db *Database) GetLastClaim(
	ctx context.Context, address string,
) (*model.ClaimRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "claimed_at", Value: -1}})
	res := db.collection(model.ClaimCollection).
		FindOne(ctx, bson.M{"address": address}, opts)

	var claim model.ClaimRecord
	if err := res.Decode(&claim); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     address,
				Message: "no claim records for wallet address",
			}
		}
		return nil, err
	}

	return &claim, nil
}

// CommitClaim is the ledger commit of the claim pipeline: the append-only
// record, the balance credit, the last_claim_at watermark and the faucet
// counters all land in one transaction. A failure here after a confirmed
// disbursement is surfaced to the caller as-is; the orchestrator flags it for
// reconciliation and never retries.
func (db *Database) CommitClaim(
	ctx context.Context, claim *model.ClaimRecord,
) (*model.Account, error) {
	result, err := db.withTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		prior, err := db.collection(model.ClaimCollection).
			CountDocuments(sessCtx, bson.M{"address": claim.Address})
		if err != nil {
			return nil, err
		}

		if _, err := db.collection(model.ClaimCollection).InsertOne(sessCtx, claim); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, &DuplicateKeyError{
					Key:     claim.ID,
					Message: "claim record already exists",
				}
			}
			return nil, err
		}

		account, err := db.AdjustBalance(sessCtx, claim.Address, claim.AmountDec())
		if err != nil {
			return nil, err
		}

		if _, err := db.collection(model.AccountCollection).UpdateOne(
			sessCtx,
			bson.M{"_id": claim.Address},
			bson.M{"$set": bson.M{"last_claim_at": claim.ClaimedAt}},
		); err != nil {
			return nil, err
		}
		account.LastClaimAt = &claim.ClaimedAt

		if err := db.bumpFaucetStats(sessCtx, claim, prior == 0); err != nil {
			return nil, err
		}

		return account, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit claim %s: %w", claim.ID, err)
	}

	return result.(*model.Account), nil
}

func (db *Database) bumpFaucetStats(
	ctx context.Context, claim *model.ClaimRecord, newClaimer bool,
) error {
	stats, err := db.GetFaucetStats(ctx)
	if err != nil {
		return err
	}

	today := claim.ClaimedAt.UTC().Format(dayFormat)
	claimsToday := stats.ClaimsToday + 1
	if stats.Day != today {
		claimsToday = 1
	}
	claimers := stats.TotalClaimers
	if newClaimer {
		claimers++
	}

	update := bson.M{
		"$set": bson.M{
			"total_disbursed": stats.TotalDisbursedDec().Add(claim.AmountDec()).String(),
			"total_claimers":  claimers,
			"claims_today":    claimsToday,
			"day":             today,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err = db.collection(model.FaucetStatsCollection).
		UpdateOne(ctx, bson.M{"_id": model.FaucetStatsDocID}, update, opts)
	return err
}
