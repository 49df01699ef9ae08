package serviceclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/infrastructure/serviceclient"
)

func newServer(t *testing.T, handler http.HandlerFunc) *serviceclient.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return serviceclient.New(serviceclient.Config{BaseURL: server.URL + "/v1/"})
}

func TestClient_PostFormRelaysResponse(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/add", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "party", r.PostForm.Get("event_name"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "Invalid request.")
	})

	relay, err := serviceclient.EventsClient{Client: c}.AddEvent(context.Background(), url.Values{"event_name": {"party"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, relay.Status)
	assert.False(t, relay.OK())
	assert.Equal(t, "Invalid request.", string(relay.Body))
}

func TestClient_PostMultipart(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "1234", r.FormValue("author_id"))

		file, header, err := r.FormFile("file_1")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "photo.png", header.Filename)
		assert.Equal(t, "png-bytes", string(content))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"abc"}`)
	})

	relay, err := serviceclient.PostsClient{Client: c}.AddPost(context.Background(),
		url.Values{"author_id": {"1234"}},
		[]serviceclient.FilePart{{Field: "file_1", Filename: "photo.png", Content: strings.NewReader("png-bytes")}},
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, relay.Status)
	assert.True(t, relay.OK())
}

func TestClient_DeletePost(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/abc123", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("author_id"))
		w.WriteHeader(http.StatusNoContent)
	})

	relay, err := serviceclient.PostsClient{Client: c}.DeletePost(context.Background(), "abc123", "42")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, relay.Status)
}

func TestClient_ListEvents(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"events":[{"_id":"1","event_name":"party","description":"d","author_id":"a",`+
			`"event_time":"2019-07-30T00:00:00Z","created_at":"2019-07-01T00:00:00Z"}],"num_events":1}`)
	})

	events, err := serviceclient.EventsClient{Client: c}.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "party", events[0].Name)
	assert.Equal(t, 2019, events[0].EventTime.Year())
}

func TestClient_ListPostsUpstreamFailure(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := serviceclient.PostsClient{Client: c}.ListPosts(context.Background())
	require.ErrorIs(t, err, errs.ErrUpstream)
}

func TestClient_HasEditAccess(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/authorization", r.URL.Path)
		require.NoError(t, r.ParseForm())
		_, _ = io.WriteString(w, `{"edit_access":`+map[bool]string{true: "true", false: "false"}[r.PostForm.Get("user_id") == "organizer"]+`}`)
	})
	users := serviceclient.UsersClient{Client: c}

	ok, err := users.HasEditAccess(context.Background(), "organizer")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.HasEditAccess(context.Background(), "guest")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Unreachable(t *testing.T) {
	c := serviceclient.New(serviceclient.Config{BaseURL: "http://127.0.0.1:1/v1"})

	_, err := serviceclient.UsersClient{Client: c}.Authenticate(context.Background(), "token")
	require.ErrorIs(t, err, errs.ErrUpstream)
}
