package httphandler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/eventboard/internal/application/user"
	httphandler "github.com/lllypuk/eventboard/internal/handler/http"
	"github.com/lllypuk/eventboard/internal/infrastructure/docstore"
	"github.com/lllypuk/eventboard/internal/infrastructure/identity"
)

// stubValidator accepts tokens of the form "good:<subject>:<name>".
type stubValidator struct {
	err error
}

func (s stubValidator) Validate(_ context.Context, token string) (*identity.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "good" {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Claims{Subject: parts[1], Name: parts[2]}, nil
}

func newUserServer(t *testing.T, validator httphandler.TokenValidator) (*echo.Echo, *docstore.MemoryCollection) {
	t.Helper()
	coll := docstore.NewMemoryCollection()
	e := echo.New()
	httphandler.NewUserHandler(user.NewService(coll), validator, nil).RegisterRoutes(e.Group("/v1"))
	return e, coll
}

func putUser(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/v1/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return serve(e, req)
}

func TestUserHandler_UpsertCreatesThenUpdates(t *testing.T) {
	e, coll := newUserServer(t, nil)

	rec := putUser(e, `{"user_id":"u1","name":"Ada","email":"ada@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"user_id":"u1","name":"Ada","email":"ada@example.com","is_organizer":false}`, rec.Body.String())

	rec = putUser(e, `{"user_id":"u1","name":"Ada L."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, coll.Len())
}

func TestUserHandler_UpsertIsIdempotent(t *testing.T) {
	e, coll := newUserServer(t, nil)

	for i := range 43 {
		rec := putUser(e, `{"user_id":"u1","name":"Ada"}`)
		require.Less(t, rec.Code, http.StatusMultipleChoices, "request %d", i)
	}
	assert.Equal(t, 1, coll.Len())
}

func TestUserHandler_UpsertRejectsMissingFields(t *testing.T) {
	e, _ := newUserServer(t, nil)

	rec := putUser(e, `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FIELD_MISMATCH")

	rec = putUser(e, `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandler_Authorization(t *testing.T) {
	e, _ := newUserServer(t, nil)

	check := func(userID string) bool {
		t.Helper()
		rec := serve(e, postForm("/v1/authorization", url.Values{"user_id": {userID}}))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp httphandler.AuthorizationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.EditAccess
	}

	assert.False(t, check("missing-user"))

	require.Equal(t, http.StatusCreated, putUser(e, `{"user_id":"u1","name":"Ada","is_organizer":true}`).Code)
	assert.False(t, check("u1"))
}

func TestUserHandler_AuthorizationRequiresUserID(t *testing.T) {
	e, _ := newUserServer(t, nil)

	rec := serve(e, postForm("/v1/authorization", url.Values{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandler_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		validator  httphandler.TokenValidator
		token      string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			validator:  stubValidator{},
			token:      "good:sub-1:Ada",
			wantStatus: http.StatusCreated,
			wantBody:   `"user_id":"sub-1"`,
		},
		{
			name:       "bad token",
			validator:  stubValidator{},
			token:      "forged",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Error: bad gauth_token.",
		},
		{
			name:       "missing token",
			validator:  stubValidator{},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Error",
		},
		{
			name:       "key set unavailable",
			validator:  stubValidator{err: fmt.Errorf("%w: timeout", identity.ErrJWKSFetchFailed)},
			token:      "good:sub-1:Ada",
			wantStatus: http.StatusBadGateway,
			wantBody:   "Error",
		},
		{
			name:       "sign-in not configured",
			token:      "good:sub-1:Ada",
			wantStatus: http.StatusNotImplemented,
			wantBody:   "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newUserServer(t, tt.validator)

			form := url.Values{}
			if tt.token != "" {
				form.Set("gauth_token", tt.token)
			}
			rec := serve(e, postForm("/v1/authenticate", form))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestUserHandler_AuthenticateStoresNonOrganizer(t *testing.T) {
	e, coll := newUserServer(t, stubValidator{})

	rec := serve(e, postForm("/v1/authenticate", url.Values{"gauth_token": {"good:sub-1:Ada"}}))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, coll.Len())

	rec = serve(e, postForm("/v1/authorization", url.Values{"user_id": {"sub-1"}}))
	assert.JSONEq(t, `{"edit_access":false}`, rec.Body.String())
}
