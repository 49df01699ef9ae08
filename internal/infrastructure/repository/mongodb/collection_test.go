//go:build integration

package mongodb_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/application/event"
	"github.com/lllypuk/eventboard/internal/application/user"
	"github.com/lllypuk/eventboard/internal/domain/record"
	infmongo "github.com/lllypuk/eventboard/internal/infrastructure/mongodb"
	"github.com/lllypuk/eventboard/internal/infrastructure/repository/mongodb"
	"github.com/lllypuk/eventboard/internal/testutil"
)

func TestCollection_InsertFindRoundTrip(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)
	ctx := context.Background()
	coll := mongodb.NewCollection(db.Collection("posts"))

	created := time.Date(2019, 6, 10, 8, 0, 0, 0, time.UTC)
	id, err := coll.InsertOne(ctx, appcore.Document{
		"event_id":   "e1",
		"text":       "hello",
		"files":      []string{"a.png"},
		"created_at": created,
	})
	require.NoError(t, err)
	require.Len(t, id, 24)

	docs, err := coll.Find(ctx, appcore.ByID(id))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0]["_id"])
	assert.Equal(t, "hello", docs[0]["text"])
	assert.Equal(t, []any{"a.png"}, docs[0]["files"])
	assert.Equal(t, created, docs[0]["created_at"])

	docs, err = coll.Find(ctx, appcore.ByID("bogus"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCollection_ContainsFoldEscapesPattern(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)
	ctx := context.Background()
	coll := mongodb.NewCollection(db.Collection("events"))

	for _, name := range []string{"valid_event", "VALID.EVENT", "other"} {
		_, err := coll.InsertOne(ctx, appcore.Document{"event_name": name})
		require.NoError(t, err)
	}

	docs, err := coll.Find(ctx, appcore.Where(appcore.ContainsFold("event_name", "valid_EVENT")))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "valid_event", docs[0]["event_name"])

	docs, err = coll.Find(ctx, appcore.Where(appcore.ContainsFold("event_name", "valid.")))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "VALID.EVENT", docs[0]["event_name"])
}

func TestEventService_OnMongo(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)
	ctx := context.Background()
	now := time.Date(2019, 6, 10, 8, 0, 0, 0, time.UTC)
	svc := event.NewService(mongodb.NewCollection(db.Collection(infmongo.CollectionEvents)),
		event.WithClock(func() time.Time { return now }))

	created, err := svc.Submit(ctx, record.Fields{
		"event_name":  "valid_event",
		"description": "A valid event.",
		"author_id":   "1234",
		"event_time":  "2019-06-11T10:33:01Z",
	})
	require.NoError(t, err)

	found, err := svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created, found[0])

	searched, err := svc.SearchByName(ctx, "VALID_EVENT")
	require.NoError(t, err)
	assert.Len(t, searched, 1)
}

func TestUserService_ConcurrentUpsertsOnMongo(t *testing.T) {
	db := testutil.SetupTestMongoDB(t)
	ctx := context.Background()
	require.NoError(t, infmongo.CreateAllIndexes(ctx, db))

	usersColl := db.Collection(infmongo.CollectionUsers)
	svc := user.NewService(mongodb.NewCollection(usersColl))

	var wg sync.WaitGroup
	for range 43 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Upsert(ctx, record.Fields{"user_id": "1234", "name": "Ada", "additional_info": "hi"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := usersColl.CountDocuments(ctx, map[string]any{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	authorized, err := svc.IsAuthorized(ctx, "1234")
	require.NoError(t, err)
	assert.False(t, authorized)
}

func TestCollection_UnreachableServer(t *testing.T) {
	client, db := testutil.SetupTestMongoDBWithClient(t)
	coll := mongodb.NewCollection(db.Collection("events"))
	require.NoError(t, client.Disconnect(context.Background()))

	_, err := coll.Find(context.Background(), appcore.All())
	require.Error(t, err)
}
