package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/domain/errs"
)

// SessionLoader resolves a session ID to the signed-in user.
type SessionLoader interface {
	Get(ctx context.Context, sessionID string) (*appcore.SessionUser, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger     *slog.Logger
	Store      SessionLoader
	CookieName string
}

// Session attaches the signed-in user to the request context when the session
// cookie names a live session. Requests without one continue anonymously.
func Session(config SessionConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(config.CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			user, err := config.Store.Get(ctx, cookie.Value)
			switch {
			case errors.Is(err, errs.ErrNotFound):
				return next(c)
			case err != nil:
				config.Logger.WarnContext(ctx, "failed to load session",
					slog.String("error", err.Error()))
				return next(c)
			}

			c.SetRequest(c.Request().WithContext(appcore.WithSessionUser(ctx, user)))
			return next(c)
		}
	}
}

// RequireSession rejects requests that carry no signed-in user with 401.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := appcore.GetSessionUser(c.Request().Context()); err != nil {
				return c.String(http.StatusUnauthorized, "Error: you must be signed in.")
			}
			return next(c)
		}
	}
}
