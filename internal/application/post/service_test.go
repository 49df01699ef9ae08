package post_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/application/post"
	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/domain/record"
	"github.com/lllypuk/eventboard/internal/infrastructure/docstore"
)

var fixedNow = time.Date(2019, 6, 10, 8, 0, 0, 0, time.UTC)

const eventID = "5d00b7f0a1b2c3d4e5f60718"

func newService(t *testing.T) (*post.Service, *docstore.MemoryCollection) {
	t.Helper()
	coll := docstore.NewMemoryCollection()
	return post.NewService(coll, post.WithClock(func() time.Time { return fixedNow })), coll
}

func postFields(event, author, text string, files []string) record.Fields {
	return record.Fields{
		"event_id":  event,
		"author_id": author,
		"text":      text,
		"files":     files,
	}
}

func TestService_SubmitBodies(t *testing.T) {
	ctx := context.Background()
	svc, coll := newService(t)

	_, err := svc.Submit(ctx, postFields(eventID, "1234", "hi", []string{}))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, postFields(eventID, "1234", "", []string{"f.png"}))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, postFields(eventID, "1234", "", []string{}))
	require.ErrorIs(t, err, errs.ErrEmptyBody)

	assert.Equal(t, 2, coll.Len())
}

func TestService_CreateThenFind(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	p, err := svc.Validate(postFields(eventID, "1234", "hello", []string{"a.png", "b.png"}))
	require.NoError(t, err)

	id, err := svc.Create(ctx, p, fixedNow)
	require.NoError(t, err)

	found, err := svc.FindByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)
	assert.Equal(t, eventID, found[0].EventID)
	assert.Equal(t, "hello", found[0].Text)
	assert.Equal(t, []string{"a.png", "b.png"}, found[0].Files)
	assert.Equal(t, fixedNow, found[0].CreatedAt)

	none, err := svc.FindByID(ctx, "000000000000000000000000")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_FindByEvent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Submit(ctx, postFields(eventID, "1234", "first", nil))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, postFields("other-event", "1234", "elsewhere", nil))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, postFields(eventID, "5678", "second", nil))
	require.NoError(t, err)

	found, err := svc.FindByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "first", found[0].Text)
	assert.Equal(t, "second", found[1].Text)

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := svc.FindByEvent(ctx, "no-such-event")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, coll := newService(t)

	p, err := svc.Submit(ctx, postFields(eventID, "1234", "mine", nil))
	require.NoError(t, err)

	err = svc.Delete(ctx, p.ID, "5678")
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, 1, coll.Len())

	require.NoError(t, svc.Delete(ctx, p.ID, "1234"))
	assert.Equal(t, 0, coll.Len())

	err = svc.Delete(ctx, p.ID, "1234")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_StoreNotConfigured(t *testing.T) {
	ctx := context.Background()
	svc := post.NewService(nil)

	_, err := svc.Submit(ctx, postFields(eventID, "1234", "hi", nil))
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)

	_, err = svc.FindAll(ctx)
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)

	_, err = svc.FindByID(ctx, "x")
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)

	_, err = svc.FindByEvent(ctx, eventID)
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)

	err = svc.Delete(ctx, "x", "1234")
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)
}

func TestService_SkipsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	svc, coll := newService(t)

	_, err := coll.InsertOne(ctx, appcore.Document{"event_id": eventID, "text": 42})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, postFields(eventID, "1234", "fine", nil))
	require.NoError(t, err)

	found, err := svc.FindByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "fine", found[0].Text)
}

func TestService_ReadsStringCreatedAt(t *testing.T) {
	ctx := context.Background()
	svc, coll := newService(t)

	fields := postFields(eventID, "1234", "legacy", []string{})
	fields["created_at"] = "2017-10-06T00:00:00+00:00"
	id, err := coll.InsertOne(ctx, fields)
	require.NoError(t, err)

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	byEvent, err := svc.FindByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, byEvent, 1)

	found, err := svc.FindByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].CreatedAt.Equal(time.Date(2017, 10, 6, 0, 0, 0, 0, time.UTC)))
}
