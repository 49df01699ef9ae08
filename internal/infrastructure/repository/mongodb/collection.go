package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/eventboard/internal/application/appcore"
)

// Collection is an appcore.Collection backed by a MongoDB collection.
type Collection struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithLogger sets the logger used for store failures.
func WithLogger(logger *slog.Logger) CollectionOption {
	return func(c *Collection) { c.logger = logger }
}

// NewCollection wraps a MongoDB collection.
func NewCollection(coll *mongo.Collection, opts ...CollectionOption) *Collection {
	c := &Collection{coll: coll, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InsertOne inserts doc and returns the hex ObjectID MongoDB assigned.
func (c *Collection) InsertOne(ctx context.Context, doc appcore.Document) (string, error) {
	res, err := c.coll.InsertOne(ctx, toBSON(doc))
	if err != nil {
		return "", c.fail(ctx, "insert", err)
	}

	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// Find returns matching documents in natural order.
func (c *Collection) Find(ctx context.Context, filter appcore.Filter) ([]appcore.Document, error) {
	query, ok := buildFilter(filter)
	if !ok {
		return []appcore.Document{}, nil
	}

	cursor, err := c.coll.Find(ctx, query)
	if err != nil {
		return nil, c.fail(ctx, "find", err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err = cursor.All(ctx, &raw); err != nil {
		return nil, c.fail(ctx, "find", err)
	}

	docs := make([]appcore.Document, 0, len(raw))
	for _, doc := range raw {
		docs = append(docs, fromBSON(doc))
	}
	return docs, nil
}

// ReplaceOne replaces the first matching document.
func (c *Collection) ReplaceOne(ctx context.Context, filter appcore.Filter, doc appcore.Document) (bool, error) {
	query, ok := buildFilter(filter)
	if !ok {
		return false, nil
	}

	res, err := c.coll.ReplaceOne(ctx, query, toBSON(doc))
	if err != nil {
		return false, c.fail(ctx, "replace", err)
	}
	return res.MatchedCount > 0, nil
}

// ReplaceOrInsert replaces the first matching document or inserts doc.
func (c *Collection) ReplaceOrInsert(
	ctx context.Context,
	filter appcore.Filter,
	doc appcore.Document,
) (bool, error) {
	query, ok := buildFilter(filter)
	if !ok {
		if _, err := c.InsertOne(ctx, doc); err != nil {
			return false, err
		}
		return true, nil
	}

	res, err := c.coll.ReplaceOne(ctx, query, toBSON(doc), options.Replace().SetUpsert(true))
	if err != nil {
		return false, c.fail(ctx, "upsert", err)
	}
	return res.UpsertedCount > 0, nil
}

// DeleteOne removes the first matching document.
func (c *Collection) DeleteOne(ctx context.Context, filter appcore.Filter) (bool, error) {
	query, ok := buildFilter(filter)
	if !ok {
		return false, nil
	}

	res, err := c.coll.DeleteOne(ctx, query)
	if err != nil {
		return false, c.fail(ctx, "delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (c *Collection) fail(ctx context.Context, operation string, err error) error {
	c.logger.ErrorContext(ctx, "mongodb operation failed",
		slog.String("collection", c.coll.Name()),
		slog.String("operation", operation),
		slog.String("error", err.Error()))
	return HandleMongoError(err, c.coll.Name())
}
