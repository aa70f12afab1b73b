package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Server error codes that mean an equivalent index is already in place.
const (
	codeNamespaceNotFound     = 26
	codeIndexAlreadyExists    = 68
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// CollectionIndexes is the desired index set for one collection.
type CollectionIndexes struct {
	Collection string
	Indexes    []mongo.IndexModel
}

func index(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniqueIndex(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func sparseUniqueIndex(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true).SetSparse(true)}
}

func ttlIndex(name, field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetName(name).SetExpireAfterSeconds(0).SetSparse(true),
	}
}

func asc(field string) bson.E  { return bson.E{Key: field, Value: 1} }
func desc(field string) bson.E { return bson.E{Key: field, Value: -1} }
func text(field string) bson.E { return bson.E{Key: field, Value: "text"} }

// IndexPlan lists every collection the application uses together with its
// indexes, in provisioning order.
func IndexPlan() []CollectionIndexes {
	return []CollectionIndexes{
		{CollectionName(models.User{}), []mongo.IndexModel{
			uniqueIndex("email_unique", bson.D{asc("email")}),
			uniqueIndex("username_unique", bson.D{asc("username")}),
			index("followers_desc", bson.D{desc("stats.followersCount")}),
		}},
		{CollectionName(models.Artist{}), []mongo.IndexModel{
			sparseUniqueIndex("external_id_unique", bson.D{asc("externalId")}),
			index("name", bson.D{asc("name")}),
		}},
		{CollectionName(models.Album{}), []mongo.IndexModel{
			sparseUniqueIndex("external_id_unique", bson.D{asc("externalId")}),
			index("artist_created", bson.D{asc("artist.id"), desc("createdAt")}),
			index("genres", bson.D{asc("genres")}),
			index("rating_desc", bson.D{desc("stats.averageRating"), desc("stats.ratingsCount")}),
			index("title_text", bson.D{text("title"), text("artist.name")}),
		}},
		{CollectionName(models.Track{}), []mongo.IndexModel{
			sparseUniqueIndex("external_id_unique", bson.D{asc("externalId")}),
			index("album_track_number", bson.D{asc("album.id"), asc("trackNumber")}),
		}},
		{CollectionName(models.Genre{}), []mongo.IndexModel{
			uniqueIndex("slug_unique", bson.D{asc("slug")}),
			index("parent", bson.D{asc("parentId")}),
		}},
		{CollectionName(models.Tag{}), []mongo.IndexModel{
			uniqueIndex("name_unique", bson.D{asc("name")}),
			index("usage_desc", bson.D{desc("usageCount"), desc("lastUsedAt")}),
		}},
		{CollectionName(models.Badge{}), []mongo.IndexModel{
			uniqueIndex("name_unique", bson.D{asc("name")}),
		}},
		{CollectionName(models.Post{}), []mongo.IndexModel{
			index("author_created", bson.D{asc("author.id"), desc("createdAt")}),
			index("deleted_created", bson.D{asc("isDeleted"), desc("createdAt")}),
			index("album_created", bson.D{asc("album.id"), desc("createdAt")}),
			index("tags", bson.D{asc("tags")}),
			index("content_text", bson.D{text("content"), text("tags")}),
		}},
		{CollectionName(models.Scratch{}), []mongo.IndexModel{
			index("album_created", bson.D{asc("album.id"), desc("createdAt")}),
			index("author_created", bson.D{asc("author.id"), desc("createdAt")}),
			index("album_rating", bson.D{asc("album.id"), asc("rating")}),
		}},
		{CollectionName(models.Playlist{}), []mongo.IndexModel{
			index("owner_created", bson.D{asc("owner.id"), desc("createdAt")}),
			index("public_created", bson.D{asc("isPublic"), asc("isDeleted"), desc("createdAt")}),
		}},
		{CollectionName(models.Comment{}), []mongo.IndexModel{
			index("target_created", bson.D{asc("target.type"), asc("target.id"), desc("createdAt")}),
		}},
		{CollectionName(models.Follow{}), []mongo.IndexModel{
			uniqueIndex("follower_followee_unique", bson.D{asc("followerId"), asc("followeeId")}),
			index("followee_created", bson.D{asc("followeeId"), desc("createdAt")}),
		}},
		{CollectionName(models.Notification{}), []mongo.IndexModel{
			index("recipient_read_created", bson.D{asc("recipientId"), asc("isRead"), desc("createdAt")}),
			ttlIndex("expires_ttl", "expiresAt"),
		}},
		{CollectionName(models.RefreshToken{}), []mongo.IndexModel{
			uniqueIndex("token_hash_unique", bson.D{asc("tokenHash")}),
			index("user", bson.D{asc("userId")}),
			ttlIndex("expires_ttl", "expiresAt"),
		}},
		{CollectionName(models.Report{}), []mongo.IndexModel{
			index("status_created", bson.D{asc("status"), desc("createdAt")}),
		}},
		{CollectionName(models.Block{}), []mongo.IndexModel{
			uniqueIndex("blocker_blocked_unique", bson.D{asc("blockerId"), asc("blockedId")}),
		}},
		{CollectionName(models.SystemLog{}), []mongo.IndexModel{
			index("timestamp_desc", bson.D{desc("timestamp")}),
			index("level_timestamp", bson.D{asc("level"), desc("timestamp")}),
		}},
	}
}

// EnsureIndexes provisions plan one collection at a time. Indexes that
// already exist by name are skipped, conflicts with an equivalent existing
// index are tolerated, and transient failures are retried with the
// configured attempts and delay. Any other failure stops provisioning.
func (c *Context) EnsureIndexes(ctx context.Context, plan []CollectionIndexes) error {
	c.state.CompareAndSwap(int32(StateConnected), int32(StateProvisioning))

	for _, ci := range plan {
		created, err := c.ensureCollectionIndexes(ctx, ci)
		if err != nil {
			return fmt.Errorf("failed to provision indexes for %s: %w", ci.Collection, err)
		}
		if created > 0 {
			c.Logger().Info("indexes created", "collection", ci.Collection, "count", created)
		}
	}

	c.state.CompareAndSwap(int32(StateProvisioning), int32(StateReady))
	c.Logger().Info("index provisioning complete", "collections", len(plan))
	return nil
}

func (c *Context) ensureCollectionIndexes(ctx context.Context, ci CollectionIndexes) (int, error) {
	coll := c.Collection(ci.Collection)

	existing, err := existingIndexNames(ctx, coll)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, model := range ci.Indexes {
		name := indexName(model)
		if name != "" && existing[name] {
			continue
		}
		err := c.retry(ctx, func() error {
			_, err := coll.Indexes().CreateOne(ctx, model)
			return err
		})
		c.observer.ObserveIndex(ci.Collection, name, err)
		switch {
		case err == nil:
			created++
		case alreadyProvisioned(err):
			c.Logger().Warn("equivalent index already exists", "collection", ci.Collection, "index", name, "error", err)
		default:
			return created, fmt.Errorf("index %s: %w", name, err)
		}
	}
	return created, nil
}

func existingIndexNames(ctx context.Context, coll *mongo.Collection) (map[string]bool, error) {
	specs, err := coll.Indexes().ListSpecifications(ctx)
	if err != nil {
		if hasCode(err, codeNamespaceNotFound) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	names := make(map[string]bool, len(specs))
	for _, s := range specs {
		names[s.Name] = true
	}
	return names, nil
}

func (c *Context) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}
		if err = fn(); err == nil || !transient(err) {
			return err
		}
	}
	return err
}

func indexName(m mongo.IndexModel) string {
	if m.Options == nil {
		return ""
	}
	var opts options.IndexOptions
	for _, set := range m.Options.List() {
		_ = set(&opts)
	}
	if opts.Name == nil {
		return ""
	}
	return *opts.Name
}

func transient(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

func alreadyProvisioned(err error) bool {
	return hasCode(err, codeIndexAlreadyExists, codeIndexOptionsConflict, codeIndexKeySpecsConflict)
}

func hasCode(err error, codes ...int) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	for _, code := range codes {
		if se.HasErrorCode(code) {
			return true
		}
	}
	return false
}
