package models

import "go.mongodb.org/mongo-driver/v2/bson"

// Block hides the blocked user's content from the blocker. The pair is
// unique.
type Block struct {
	BaseDocument `bson:",inline"`
	BlockerID    bson.ObjectID `bson:"blockerId" json:"blocker_id"`
	BlockedID    bson.ObjectID `bson:"blockedId" json:"blocked_id"`
}
