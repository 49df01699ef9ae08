package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/eventboard/internal/application/post"
	"github.com/lllypuk/eventboard/internal/domain/errs"
	httphandler "github.com/lllypuk/eventboard/internal/handler/http"
	"github.com/lllypuk/eventboard/internal/infrastructure/docstore"
)

type fakeUploader struct {
	uploaded map[string]string
	err      error
}

func (f *fakeUploader) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.uploaded == nil {
		f.uploaded = map[string]string{}
	}
	f.uploaded[name] = string(data)
	return "https://media.example.com/" + name, nil
}

func newPostServer(t *testing.T, uploader httphandler.Uploader) *echo.Echo {
	t.Helper()
	svc := post.NewService(docstore.NewMemoryCollection(), post.WithClock(func() time.Time { return fixedNow }))
	e := echo.New()
	httphandler.NewPostHandler(svc, uploader, nil).RegisterRoutes(e.Group("/v1"))
	return e
}

func postFields(eventID, authorID, text string) url.Values {
	return url.Values{"event_id": {eventID}, "author_id": {authorID}, "text": {text}}
}

func multipartRequest(t *testing.T, target string, form url.Values, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for key, values := range form {
		for _, v := range values {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decodePosts(t *testing.T, rec *httptest.ResponseRecorder) httphandler.PostListResponse {
	t.Helper()
	var resp httphandler.PostListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func addPost(t *testing.T, e *echo.Echo, eventID, authorID, text string) string {
	t.Helper()
	rec := serve(e, postForm("/v1/add", postFields(eventID, authorID, text)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created httphandler.CreatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.ID
}

func TestPostHandler_AddTextThenGet(t *testing.T) {
	e := newPostServer(t, nil)
	id := addPost(t, e, "event-1", "author-1", "hi")

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/v1/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodePosts(t, rec)
	require.Equal(t, 1, resp.NumPosts)
	assert.Equal(t, "hi", resp.Posts[0].Text)
	assert.Empty(t, resp.Posts[0].Files)
	assert.True(t, resp.Posts[0].CreatedAt.Equal(fixedNow))
}

func TestPostHandler_AddUploadsFiles(t *testing.T) {
	uploader := &fakeUploader{}
	e := newPostServer(t, uploader)

	req := multipartRequest(t, "/v1/add", postFields("event-1", "author-1", ""), map[string]string{
		"f.png": "png-bytes",
	})
	rec := serve(e, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "png-bytes", uploader.uploaded["f.png"])

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/v1/", nil))
	resp := decodePosts(t, rec)
	require.Equal(t, 1, resp.NumPosts)
	assert.Equal(t, []string{"https://media.example.com/f.png"}, resp.Posts[0].Files)
}

func TestPostHandler_AddWithoutUploaderKeepsNames(t *testing.T) {
	e := newPostServer(t, nil)

	req := multipartRequest(t, "/v1/add", postFields("event-1", "author-1", ""), map[string]string{
		"f.png": "png-bytes",
	})
	require.Equal(t, http.StatusCreated, serve(e, req).Code)

	resp := decodePosts(t, serve(e, httptest.NewRequest(http.MethodGet, "/v1/", nil)))
	require.Equal(t, 1, resp.NumPosts)
	assert.Equal(t, []string{"f.png"}, resp.Posts[0].Files)
}

func TestPostHandler_AddUploadFailure(t *testing.T) {
	e := newPostServer(t, &fakeUploader{err: errors.Join(errs.ErrUpstream, errors.New("quota"))})

	req := multipartRequest(t, "/v1/add", postFields("event-1", "author-1", ""), map[string]string{
		"f.png": "png-bytes",
	})
	assert.Equal(t, http.StatusBadGateway, serve(e, req).Code)
}

func TestPostHandler_AddRejectsEmptyBody(t *testing.T) {
	e := newPostServer(t, nil)

	rec := serve(e, postForm("/v1/add", postFields("event-1", "author-1", "")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMPTY_BODY")
}

func TestPostHandler_AddRequiresFormKeys(t *testing.T) {
	e := newPostServer(t, nil)

	form := postFields("event-1", "author-1", "hi")
	form.Del("author_id")

	rec := serve(e, postForm("/v1/add", form))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request.")
}

func TestPostHandler_ListByEvent(t *testing.T) {
	e := newPostServer(t, nil)
	addPost(t, e, "event-1", "author-1", "one")
	addPost(t, e, "event-1", "author-2", "two")
	addPost(t, e, "event-2", "author-1", "three")

	resp := decodePosts(t, serve(e, httptest.NewRequest(http.MethodGet, "/v1/by_event/event-1", nil)))
	assert.Equal(t, 2, resp.NumPosts)

	resp = decodePosts(t, serve(e, httptest.NewRequest(http.MethodGet, "/v1/by_event/none", nil)))
	assert.Equal(t, 0, resp.NumPosts)
}

func TestPostHandler_Delete(t *testing.T) {
	e := newPostServer(t, nil)
	id := addPost(t, e, "event-1", "author-1", "bye")

	rec := serve(e, httptest.NewRequest(http.MethodDelete, "/v1/"+id+"?author_id=someone-else", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/v1/"+id, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/v1/"+id+"?author_id=author-1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	resp := decodePosts(t, serve(e, httptest.NewRequest(http.MethodGet, "/v1/", nil)))
	assert.Equal(t, 0, resp.NumPosts)
}

func jsonPost(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/add", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestPostHandler_AddJSON(t *testing.T) {
	e := newPostServer(t, nil)

	rec := serve(e, jsonPost(`{"event_id":"event-1","author_id":"author-1","text":"hi","files":["a.png"]}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(e, jsonPost(`{"event_id":"event-1","author_id":"author-2","text":"no files"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodePosts(t, serve(e, httptest.NewRequest(http.MethodGet, "/v1/by_event/event-1", nil)))
	require.Equal(t, 2, resp.NumPosts)
	assert.Equal(t, []string{"a.png"}, resp.Posts[0].Files)
	assert.Empty(t, resp.Posts[1].Files)
}

func TestPostHandler_AddJSONRejections(t *testing.T) {
	e := newPostServer(t, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing keys", `{"text":"hi"}`, "Invalid request."},
		{"extra key", `{"event_id":"e","author_id":"a","text":"hi","files":[],"likes":3}`, "FIELD_MISMATCH"},
		{"not an object", `["hi"]`, "Invalid request."},
		{"empty body", `{"event_id":"e","author_id":"a","text":""}`, "EMPTY_BODY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, jsonPost(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}
