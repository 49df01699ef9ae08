package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/lllypuk/eventboard/internal/middleware"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		origins         []string
		requestOrigin   string
		wantAllowOrigin string
		wantCredentials string
	}{
		{name: "no origins allows any", requestOrigin: "http://example.com", wantAllowOrigin: "*"},
		{
			name:            "listed origin with credentials",
			origins:         []string{"http://localhost:8080"},
			requestOrigin:   "http://localhost:8080",
			wantAllowOrigin: "http://localhost:8080",
			wantCredentials: "true",
		},
		{
			name:            "unlisted origin",
			origins:         []string{"http://localhost:8080"},
			requestOrigin:   "http://evil.example",
			wantAllowOrigin: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(middleware.CORS(tt.origins))
			e.GET("/v1/", func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})

			req := httptest.NewRequest(http.MethodGet, "/v1/", nil)
			req.Header.Set(echo.HeaderOrigin, tt.requestOrigin)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantAllowOrigin, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
			assert.Equal(t, tt.wantCredentials, rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	e := echo.New()
	e.Use(middleware.CORS([]string{"http://localhost:8080"}))
	e.DELETE("/v1/delete_post/:post_id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodOptions, "/v1/delete_post/1", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:8080")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodDelete)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodDelete)
	assert.Equal(t, "86400", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}
