// Package mongodb provides MongoDB client setup and index management.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names as constants for consistency.
const (
	CollectionEvents = "events"
	CollectionPosts  = "posts"
	CollectionUsers  = "users"
)

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Name       string
	Keys       bson.D
	Unique     bool
}

// CreateAllIndexes creates every index. Creating an existing index is a no-op.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	return CreateIndexes(ctx, db, GetAllIndexDefinitions())
}

// CreateIndexes creates the given indexes.
func CreateIndexes(ctx context.Context, db *mongo.Database, indexes []IndexDefinition) error {
	for _, idx := range indexes {
		model := mongo.IndexModel{
			Keys:    idx.Keys,
			Options: options.Index().SetName(idx.Name).SetUnique(idx.Unique),
		}

		if _, err := db.Collection(idx.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index %s on collection %s: %w", idx.Name, idx.Collection, err)
		}
	}
	return nil
}

// GetAllIndexDefinitions returns all index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	var indexes []IndexDefinition
	indexes = append(indexes, GetEventIndexes()...)
	indexes = append(indexes, GetPostIndexes()...)
	indexes = append(indexes, GetUserIndexes()...)
	return indexes
}

// IndexesFor returns the index definitions of one collection.
func IndexesFor(collection string) []IndexDefinition {
	switch collection {
	case CollectionEvents:
		return GetEventIndexes()
	case CollectionPosts:
		return GetPostIndexes()
	case CollectionUsers:
		return GetUserIndexes()
	default:
		return nil
	}
}

// GetEventIndexes returns index definitions for the events collection.
func GetEventIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionEvents,
			Name:       "idx_events_name",
			Keys:       bson.D{{Key: "event_name", Value: 1}},
		},
	}
}

// GetPostIndexes returns index definitions for the posts collection.
func GetPostIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionPosts,
			Name:       "idx_posts_event",
			Keys:       bson.D{{Key: "event_id", Value: 1}},
		},
		{
			Collection: CollectionPosts,
			Name:       "idx_posts_author",
			Keys:       bson.D{{Key: "author_id", Value: 1}},
		},
	}
}

// GetUserIndexes returns index definitions for the users collection.
func GetUserIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// upserts are keyed by user_id; the unique index makes concurrent upserts converge
			Collection: CollectionUsers,
			Name:       "idx_users_id_unique",
			Keys:       bson.D{{Key: "user_id", Value: 1}},
			Unique:     true,
		},
	}
}
