// Package mongodb implements appcore.Collection on a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/domain/errs"
)

// HandleMongoError converts a MongoDB error into a domain error.
// returns:
//   - nil if err == nil
//   - errs.ErrNotFound if no document matched
//   - errs.ErrAlreadyExists if a unique index rejected the write
//   - errs.ErrStoreUnavailable if the server could not be reached in time
//   - wrapped error otherwise
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", resourceType, errs.ErrAlreadyExists)
	}

	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", resourceType, errs.ErrStoreUnavailable, err)
	}

	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

func isUnavailable(err error) bool {
	return mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded)
}

// buildFilter translates a filter into a MongoDB query. ok is false when the
// filter can match nothing, e.g. an identifier that is not an ObjectID.
func buildFilter(filter appcore.Filter) (bson.M, bool) {
	query := bson.M{}
	for _, cond := range filter {
		switch cond.Op {
		case appcore.OpEq:
			value := cond.Value
			if cond.Field == appcore.IDField {
				if s, isString := value.(string); isString {
					oid, err := bson.ObjectIDFromHex(s)
					if err != nil {
						return nil, false
					}
					value = oid
				}
			}
			query[cond.Field] = value
		case appcore.OpContainsFold:
			substr, _ := cond.Value.(string)
			query[cond.Field] = bson.M{"$regex": regexp.QuoteMeta(substr), "$options": "i"}
		default:
			return nil, false
		}
	}
	return query, true
}

// toBSON converts a document for writing. The identifier is never written:
// MongoDB assigns it on insert and keeps it on replace.
func toBSON(doc appcore.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if k == appcore.IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// fromBSON converts a decoded document: ObjectIDs become hex strings and
// BSON dates become UTC times.
func fromBSON(doc bson.M) appcore.Document {
	out := make(appcore.Document, len(doc))
	for k, v := range doc {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch val := v.(type) {
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC()
	case time.Time:
		return val.UTC()
	case bson.M:
		return map[string]any(fromBSON(val))
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
