package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/lllypuk/eventboard/internal/middleware"
)

func TestRecovery(t *testing.T) {
	tests := []struct {
		name    string
		panicOf any
		wantLog string
	}{
		{name: "string panic", panicOf: "something went wrong", wantLog: "something went wrong"},
		{name: "int panic", panicOf: 42, wantLog: "42"},
		{name: "error panic", panicOf: echo.NewHTTPError(http.StatusBadRequest, "bad"), wantLog: "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			e.Use(middleware.Recovery(slog.New(slog.NewJSONHandler(&buf, nil))))
			e.GET("/panic", func(_ echo.Context) error {
				panic(tt.panicOf)
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Contains(t, buf.String(), "panic recovered")
			assert.Contains(t, buf.String(), tt.wantLog)
			assert.Contains(t, buf.String(), "stack")
		})
	}
}

func TestRecovery_NoPanic(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(middleware.Recovery(slog.New(slog.NewJSONHandler(&buf, nil))))
	e.GET("/ok", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, buf.String())
}

func TestRecovery_NilLogger(t *testing.T) {
	e := echo.New()
	e.Use(middleware.Recovery(nil))
	e.GET("/panic", func(_ echo.Context) error {
		panic("nil logger")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
