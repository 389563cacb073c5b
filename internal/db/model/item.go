package model

import "time"

const ItemCollection = "items"

// Item is a stakeable collection asset. OwnerAddress is nil for unowned items.
// StakedAt is set iff Staked is true.
type Item struct {
	ID           string     `bson:"_id"`
	TokenID      string     `bson:"token_id"`
	Name         string     `bson:"name"`
	OwnerAddress *string    `bson:"owner_address,omitempty"`
	Staked       bool       `bson:"staked"`
	StakedAt     *time.Time `bson:"staked_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
}

func (i *Item) HasOwner() bool {
	return i.OwnerAddress != nil && *i.OwnerAddress != ""
}
