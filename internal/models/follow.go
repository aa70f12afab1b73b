package models

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

// Follow is one edge of the social graph. The (followerId, followeeId) pair
// is unique.
type Follow struct {
	BaseDocument `bson:",inline"`
	FollowerID   bson.ObjectID `bson:"followerId" json:"follower_id"`
	FolloweeID   bson.ObjectID `bson:"followeeId" json:"followee_id"`
	Follower     UserRef       `bson:"follower" json:"follower"`
	Followee     UserRef       `bson:"followee" json:"followee"`
}

func NewFollow(follower, followee UserRef) (*Follow, error) {
	if follower.ID.IsZero() || followee.ID.IsZero() {
		return nil, ErrInvalidReference
	}
	if follower.ID == followee.ID {
		return nil, ErrSelfFollow
	}
	return &Follow{
		FollowerID: follower.ID,
		FolloweeID: followee.ID,
		Follower:   follower,
		Followee:   followee,
	}, nil
}
