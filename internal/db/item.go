package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vikingheim/odin-rewards/internal/db/model"
)

func (db *Database) GetItem(ctx context.Context, id string) (*model.Item, error) {
	res := db.collection(model.ItemCollection).FindOne(ctx, bson.M{"_id": id})

	var item model.Item
	if err := res.Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     id,
				Message: "item not found",
			}
		}
		return nil, err
	}

	return &item, nil
}

func (db *Database) SaveItem(ctx context.Context, item *model.Item) error {
	_, err := db.collection(model.ItemCollection).InsertOne(ctx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     item.ID,
				Message: "item already exists",
			}
		}
		return err
	}
	return nil
}

func (db *Database) ListItems(
	ctx context.Context, limit, offset int64,
) ([]*model.Item, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := db.collection(model.ItemCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*model.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (db *Database) ListItemsByOwner(
	ctx context.Context, ownerAddress string,
) ([]*model.Item, error) {
	return db.findItems(ctx, bson.M{"owner_address": ownerAddress})
}

func (db *Database) ListStakedItemsByOwner(
	ctx context.Context, ownerAddress string,
) ([]*model.Item, error) {
	return db.findItems(ctx, bson.M{"owner_address": ownerAddress, "staked": true})
}

func (db *Database) ListStakedItems(ctx context.Context) ([]*model.Item, error) {
	return db.findItems(ctx, bson.M{"staked": true})
}

func (db *Database) findItems(ctx context.Context, filter bson.M) ([]*model.Item, error) {
	cursor, err := db.collection(model.ItemCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*model.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (db *Database) UpdateItemStaking(
	ctx context.Context, id string, fromStaked, toStaked bool, stakedAt *time.Time,
) (*model.Item, error) {
	filter := bson.M{"_id": id, "staked": fromStaked}

	updateFields := bson.M{"staked": toStaked}
	update := bson.M{"$set": updateFields}
	if stakedAt != nil {
		updateFields["staked_at"] = *stakedAt
	} else {
		update["$unset"] = bson.M{"staked_at": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := db.collection(model.ItemCollection).
		FindOneAndUpdate(ctx, filter, update, opts)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     id,
				Message: "item not found or not in the expected staking state",
			}
		}
		return nil, res.Err()
	}

	var item model.Item
	if err := res.Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}
