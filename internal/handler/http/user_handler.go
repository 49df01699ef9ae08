package httphandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	appuser "github.com/lllypuk/eventboard/internal/application/user"
	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/domain/record"
	domainuser "github.com/lllypuk/eventboard/internal/domain/user"
	"github.com/lllypuk/eventboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/eventboard/internal/infrastructure/identity"
)

// Form fields read by the users service.
const (
	FormUserID     = "user_id"
	FormGAuthToken = "gauth_token"
)

// UserService defines the user record operations the handler needs.
type UserService interface {
	Upsert(ctx context.Context, fields record.Fields) (*domainuser.User, bool, error)
	IsAuthorized(ctx context.Context, userID string) (bool, error)
	Authenticate(ctx context.Context, id appuser.Identity) (*domainuser.User, bool, error)
}

// TokenValidator verifies identity provider tokens.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*identity.Claims, error)
}

// AuthorizationResponse reports whether a user may edit events.
type AuthorizationResponse struct {
	EditAccess bool `json:"edit_access"`
}

// AuthenticatedUser is returned after a successful sign-in.
type AuthenticatedUser struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// UserHandler serves the users service API.
type UserHandler struct {
	users     UserService
	validator TokenValidator
	logger    *slog.Logger
}

// NewUserHandler creates a new UserHandler. A nil validator disables sign-in.
func NewUserHandler(users UserService, validator TokenValidator, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, validator: validator, logger: logger}
}

// RegisterRoutes registers user routes on the API group.
func (h *UserHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/authorization", h.Authorization)
	g.PUT("/", h.Upsert)
	g.POST("/authenticate", h.Authenticate)
}

// Authorization handles POST /v1/authorization.
func (h *UserHandler) Authorization(c echo.Context) error {
	userID := c.FormValue(FormUserID)
	if userID == "" {
		return httpserver.RespondError(c, fmt.Errorf("%w: missing %s", errs.ErrInvalidInput, FormUserID))
	}

	ok, err := h.users.IsAuthorized(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, AuthorizationResponse{EditAccess: ok})
}

// Upsert handles PUT /v1/. The body is a JSON user object.
func (h *UserHandler) Upsert(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	u, created, err := h.users.Upsert(c.Request().Context(), fields)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	if created {
		return httpserver.RespondCreated(c, u)
	}
	return httpserver.RespondOK(c, u)
}

// Authenticate handles POST /v1/authenticate. Failures are plain text so that
// pageserve can relay them to the browser unchanged.
func (h *UserHandler) Authenticate(c echo.Context) error {
	if h.validator == nil {
		return c.String(http.StatusNotImplemented, "Error: sign-in is not configured.")
	}

	token := c.FormValue(FormGAuthToken)
	if token == "" {
		return c.String(http.StatusBadRequest, "Error: missing gauth_token.")
	}

	ctx := c.Request().Context()
	claims, err := h.validator.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrJWKSFetchFailed) {
			h.logger.ErrorContext(ctx, "identity keys unavailable", slog.String("error", err.Error()))
			return c.String(http.StatusBadGateway, "Error: identity provider unavailable.")
		}
		h.logger.InfoContext(ctx, "identity token rejected", slog.String("error", err.Error()))
		return c.String(http.StatusBadRequest, "Error: bad gauth_token.")
	}

	u, _, err := h.users.Authenticate(ctx, appuser.Identity{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondCreated(c, AuthenticatedUser{UserID: u.UserID, Name: u.Name})
}
