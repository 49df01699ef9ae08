// Package middleware holds the echo middleware shared by every eventboard service.
package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lllypuk/eventboard/internal/application/appcore"
)

// RequestIDHeader is the header carrying the request ID.
const RequestIDHeader = echo.HeaderXRequestID

// LoggingConfig holds configuration for the logging middleware.
type LoggingConfig struct {
	Logger    *slog.Logger
	SkipPaths []string
}

// DefaultLoggingConfig skips the probe endpoints.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Logger:    slog.Default(),
		SkipPaths: []string{"/health", "/ready", "/metrics"},
	}
}

// Logging logs every request once it completes and tags it with a request ID.
// An incoming X-Request-ID is reused, otherwise a new one is generated. The ID is
// echoed in the response and stored in the request context.
func Logging(config LoggingConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(RequestIDHeader, requestID)
			c.SetRequest(req.WithContext(appcore.WithRequestID(req.Context(), requestID)))

			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			status := c.Response().Status
			var he *echo.HTTPError
			if err != nil && errors.As(err, &he) {
				status = he.Code
			}

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("latency", latency),
				slog.String("remote_ip", c.RealIP()),
				slog.Int64("response_size", c.Response().Size),
			}
			if query := req.URL.RawQuery; query != "" {
				attrs = append(attrs, slog.String("query", query))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}

			config.Logger.LogAttrs(c.Request().Context(), levelFor(status), "HTTP request", attrs...)
			return err
		}
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
