package appcore

import (
	"context"

	"github.com/lllypuk/eventboard/internal/domain/record"
)

// IDField is the field holding a stored document's identifier.
const IDField = "_id"

// Document is a stored record. Identifiers are exposed as strings under IDField.
type Document = record.Fields

// Op is a filter comparison.
type Op int

const (
	// OpEq matches documents whose field equals the value.
	OpEq Op = iota
	// OpContainsFold matches documents whose string field contains the value, ignoring case.
	OpContainsFold
)

// Condition is a single field predicate.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. An empty filter matches every document.
type Filter []Condition

// All matches every document.
func All() Filter { return nil }

// Where builds a filter from conditions.
func Where(conds ...Condition) Filter { return Filter(conds) }

// ByID matches the document with the given identifier.
func ByID(id string) Filter { return Where(Eq(IDField, id)) }

// Eq matches field == value.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// ContainsFold matches a case-insensitive substring of a string field.
func ContainsFold(field, substr string) Condition {
	return Condition{Field: field, Op: OpContainsFold, Value: substr}
}

// Collection is the document store a record service persists into.
// Implementations provide per-document atomicity only.
type Collection interface {
	// InsertOne stores doc under a new identifier and returns it.
	InsertOne(ctx context.Context, doc Document) (string, error)

	// Find returns matching documents in store-native order. No match is an empty slice.
	Find(ctx context.Context, filter Filter) ([]Document, error)

	// ReplaceOne replaces the first matching document, keeping its identifier.
	// It reports whether a document matched.
	ReplaceOne(ctx context.Context, filter Filter, doc Document) (bool, error)

	// ReplaceOrInsert replaces the first matching document or inserts doc when
	// nothing matches. It reports whether an insert happened.
	ReplaceOrInsert(ctx context.Context, filter Filter, doc Document) (bool, error)

	// DeleteOne removes the first matching document and reports whether one matched.
	DeleteOne(ctx context.Context, filter Filter) (bool, error)
}
