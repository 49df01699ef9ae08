// Package docstore provides an in-memory appcore.Collection for tests and mock mode.
package docstore

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lllypuk/eventboard/internal/application/appcore"
)

// MemoryCollection keeps documents in insertion order.
type MemoryCollection struct {
	mu   sync.RWMutex
	docs []appcore.Document
}

// NewMemoryCollection creates an empty in-memory collection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{}
}

// InsertOne stores a copy of doc under a fresh object identifier.
func (m *MemoryCollection) InsertOne(ctx context.Context, doc appcore.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := bson.NewObjectID().Hex()
	stored := cloneDocument(doc)
	stored[appcore.IDField] = id

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, stored)
	return id, nil
}

// Find returns copies of matching documents.
func (m *MemoryCollection) Find(ctx context.Context, filter appcore.Filter) ([]appcore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]appcore.Document, 0)
	for _, doc := range m.docs {
		if matches(doc, filter) {
			out = append(out, cloneDocument(doc))
		}
	}
	return out, nil
}

// ReplaceOne replaces the first match, keeping its identifier.
func (m *MemoryCollection) ReplaceOne(ctx context.Context, filter appcore.Filter, doc appcore.Document) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(filter)
	if i < 0 {
		return false, nil
	}
	m.docs[i] = replacement(m.docs[i], doc)
	return true, nil
}

// ReplaceOrInsert replaces the first match or appends doc.
func (m *MemoryCollection) ReplaceOrInsert(
	ctx context.Context,
	filter appcore.Filter,
	doc appcore.Document,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(filter); i >= 0 {
		m.docs[i] = replacement(m.docs[i], doc)
		return false, nil
	}

	stored := cloneDocument(doc)
	stored[appcore.IDField] = bson.NewObjectID().Hex()
	m.docs = append(m.docs, stored)
	return true, nil
}

// DeleteOne removes the first match.
func (m *MemoryCollection) DeleteOne(ctx context.Context, filter appcore.Filter) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(filter)
	if i < 0 {
		return false, nil
	}
	m.docs = slices.Delete(m.docs, i, i+1)
	return true, nil
}

// Len returns the number of stored documents.
func (m *MemoryCollection) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// indexOf must be called with the lock held.
func (m *MemoryCollection) indexOf(filter appcore.Filter) int {
	for i, doc := range m.docs {
		if matches(doc, filter) {
			return i
		}
	}
	return -1
}

func replacement(current, doc appcore.Document) appcore.Document {
	stored := cloneDocument(doc)
	stored[appcore.IDField] = current[appcore.IDField]
	return stored
}

func matches(doc appcore.Document, filter appcore.Filter) bool {
	for _, cond := range filter {
		value, ok := doc[cond.Field]
		switch cond.Op {
		case appcore.OpEq:
			if !ok || !reflect.DeepEqual(value, cond.Value) {
				return false
			}
		case appcore.OpContainsFold:
			s, isString := value.(string)
			substr, _ := cond.Value.(string)
			if !isString || !strings.Contains(strings.ToLower(s), strings.ToLower(substr)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func cloneDocument(doc appcore.Document) appcore.Document {
	out := make(appcore.Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []string:
		return slices.Clone(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		return map[string]any(cloneDocument(val))
	case appcore.Document:
		return cloneDocument(val)
	default:
		return v
	}
}
