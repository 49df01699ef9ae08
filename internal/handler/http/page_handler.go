package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/domain/errs"
	domainevent "github.com/lllypuk/eventboard/internal/domain/event"
	domainpost "github.com/lllypuk/eventboard/internal/domain/post"
	"github.com/lllypuk/eventboard/internal/infrastructure/serviceclient"
	"github.com/lllypuk/eventboard/internal/middleware"
)

// EventsGateway is the events service as seen by pageserve.
type EventsGateway interface {
	ListEvents(ctx context.Context) ([]domainevent.Event, error)
	AddEvent(ctx context.Context, form url.Values) (*serviceclient.Relay, error)
}

// PostsGateway is the posts service as seen by pageserve.
type PostsGateway interface {
	ListPosts(ctx context.Context) ([]domainpost.Post, error)
	AddPost(ctx context.Context, form url.Values, files []serviceclient.FilePart) (*serviceclient.Relay, error)
	DeletePost(ctx context.Context, postID, authorID string) (*serviceclient.Relay, error)
}

// UsersGateway is the users service as seen by pageserve.
type UsersGateway interface {
	Authenticate(ctx context.Context, token string) (*serviceclient.Relay, error)
	HasEditAccess(ctx context.Context, userID string) (bool, error)
}

// SessionStore keeps signed-in users between requests.
type SessionStore interface {
	Create(ctx context.Context, user *appcore.SessionUser) (string, error)
	Delete(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// PageData is passed to every page template.
type PageData struct {
	Title  string
	User   *appcore.SessionUser
	Auth   bool
	Posts  []domainpost.Post
	Events []domainevent.Event
}

// PageHandlerConfig holds the dependencies of a PageHandler.
type PageHandlerConfig struct {
	Events   EventsGateway
	Posts    PostsGateway
	Users    UsersGateway
	Sessions SessionStore
	Cookie   SessionCookie
	Logger   *slog.Logger
}

// PageHandler serves the pageserve front end.
type PageHandler struct {
	events   EventsGateway
	posts    PostsGateway
	users    UsersGateway
	sessions SessionStore
	cookie   SessionCookie
	logger   *slog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(cfg PageHandlerConfig) *PageHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &PageHandler{
		events:   cfg.Events,
		posts:    cfg.Posts,
		users:    cfg.Users,
		sessions: cfg.Sessions,
		cookie:   cfg.Cookie,
		logger:   cfg.Logger,
	}
}

// RegisterRoutes registers pageserve routes. The group must run the session
// middleware.
func (h *PageHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/", h.Index)
	g.GET("/events", h.Events)
	g.POST("/authenticate", h.Authenticate)
	g.GET("/sign_out", h.SignOut)

	requireSession := middleware.RequireSession()
	g.POST("/add_post", h.AddPost, requireSession)
	g.POST("/add_event", h.AddEvent, requireSession)
	g.DELETE("/delete_post/:post_id", h.DeletePost, requireSession)
}

// Index renders the post feed.
func (h *PageHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()

	posts, err := h.posts.ListPosts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to retrieve posts", slog.String("error", err.Error()))
		return c.String(http.StatusInternalServerError, "Error: could not retrieve posts.")
	}

	user := sessionUser(c)
	return c.Render(http.StatusOK, "index.html", PageData{
		Title: "Posts",
		User:  user,
		Auth:  h.editAccess(ctx, user),
		Posts: posts,
	})
}

// Events renders the event list.
func (h *PageHandler) Events(c echo.Context) error {
	ctx := c.Request().Context()

	events, err := h.events.ListEvents(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to retrieve events", slog.String("error", err.Error()))
		return c.String(http.StatusInternalServerError, "Error: could not retrieve events.")
	}

	user := sessionUser(c)
	return c.Render(http.StatusOK, "events.html", PageData{
		Title:  "Events",
		User:   user,
		Auth:   h.editAccess(ctx, user),
		Events: events,
	})
}

// Authenticate exchanges an identity token for a session. The users service
// response is relayed either way; a session is only stored on success.
func (h *PageHandler) Authenticate(c echo.Context) error {
	token := c.FormValue(FormGAuthToken)
	if token == "" {
		return c.String(http.StatusBadRequest, "Error: missing gauth_token.")
	}

	ctx := c.Request().Context()
	resp, err := h.users.Authenticate(ctx, token)
	if err != nil {
		return upstreamFailure(c)
	}
	if !resp.OK() {
		return relay(c, resp)
	}

	var signedIn AuthenticatedUser
	if err = json.Unmarshal(resp.Body, &signedIn); err != nil || signedIn.UserID == "" {
		h.logger.ErrorContext(ctx, "unexpected authenticate response", slog.String("body", string(resp.Body)))
		return upstreamFailure(c)
	}

	sessionID, err := h.sessions.Create(ctx, &appcore.SessionUser{
		UserID:     signedIn.UserID,
		Name:       signedIn.Name,
		GAuthToken: token,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create session", slog.String("error", err.Error()))
		return c.String(http.StatusInternalServerError, "Error: could not start a session.")
	}
	h.cookie.set(c, sessionID, h.sessions.TTL())

	return relay(c, resp)
}

// SignOut ends the session and returns to the feed.
func (h *PageHandler) SignOut(c echo.Context) error {
	if id := h.cookie.value(c); id != "" {
		if err := h.sessions.Delete(c.Request().Context(), id); err != nil {
			h.logger.WarnContext(c.Request().Context(), "failed to delete session",
				slog.String("error", err.Error()))
		}
	}
	h.cookie.clear(c)
	return c.Redirect(http.StatusFound, "/v1/")
}

// AddPost forwards a post written by the signed-in user.
func (h *PageHandler) AddPost(c echo.Context) error {
	user := sessionUser(c)

	form := submittedForm(c, domainpost.FieldEventID, domainpost.FieldText)
	form.Set(domainpost.FieldAuthorID, user.UserID)

	files, closeFiles, err := formFiles(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "Error: could not read the attached files.")
	}
	defer closeFiles()

	resp, err := h.posts.AddPost(c.Request().Context(), form, files)
	if err != nil {
		return upstreamFailure(c)
	}
	return relay(c, resp)
}

// submittedForm copies the listed keys the browser actually sent, so the
// backing service sees a missing key as missing.
func submittedForm(c echo.Context, keys ...string) url.Values {
	form := url.Values{}
	params, err := c.FormParams()
	if err != nil {
		return form
	}
	for _, key := range keys {
		if params.Has(key) {
			form.Set(key, params.Get(key))
		}
	}
	return form
}

// AddEvent forwards an event created by a signed-in organizer.
func (h *PageHandler) AddEvent(c echo.Context) error {
	ctx := c.Request().Context()
	user := sessionUser(c)

	ok, err := h.users.HasEditAccess(ctx, user.UserID)
	if err != nil {
		return upstreamFailure(c)
	}
	if !ok {
		return c.String(http.StatusForbidden, "Error: only organizers can create events.")
	}

	form := submittedForm(c, domainevent.FieldName, domainevent.FieldDescription, domainevent.FieldEventTime)
	form.Set(domainevent.FieldAuthorID, user.UserID)

	resp, err := h.events.AddEvent(ctx, form)
	if err != nil {
		return upstreamFailure(c)
	}
	if !resp.OK() {
		h.logger.InfoContext(ctx, "event rejected",
			slog.Int("status", resp.Status),
			slog.String("body", string(resp.Body)))
		return c.String(resp.Status, "Error: the event could not be created.")
	}
	return relay(c, resp)
}

// DeletePost deletes one of the signed-in user's posts.
func (h *PageHandler) DeletePost(c echo.Context) error {
	user := sessionUser(c)

	resp, err := h.posts.DeletePost(c.Request().Context(), c.Param("post_id"), user.UserID)
	if err != nil {
		return upstreamFailure(c)
	}
	return relay(c, resp)
}

func (h *PageHandler) editAccess(ctx context.Context, user *appcore.SessionUser) bool {
	if user == nil {
		return false
	}
	ok, err := h.users.HasEditAccess(ctx, user.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to check edit access",
			slog.String("user_id", user.UserID),
			slog.String("error", err.Error()))
		return false
	}
	return ok
}

func sessionUser(c echo.Context) *appcore.SessionUser {
	user, err := appcore.GetSessionUser(c.Request().Context())
	if err != nil {
		return nil
	}
	return user
}

// relay writes a downstream response back unchanged.
func relay(c echo.Context, resp *serviceclient.Relay) error {
	if resp.Status == http.StatusNoContent || len(resp.Body) == 0 {
		return c.NoContent(resp.Status)
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = echo.MIMETextPlainCharsetUTF8
	}
	return c.Blob(resp.Status, contentType, resp.Body)
}

func upstreamFailure(c echo.Context) error {
	return c.String(http.StatusBadGateway, "Error: a backing service is unavailable.")
}

// formFiles opens every file of a multipart request. The returned func closes
// them.
func formFiles(c echo.Context) ([]serviceclient.FilePart, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, noop, nil
	}

	mf, err := c.MultipartForm()
	if err != nil {
		return nil, noop, fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	var (
		parts  []serviceclient.FilePart
		opened []multipart.File
	)
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for field, headers := range mf.File {
		for _, fh := range headers {
			f, openErr := fh.Open()
			if openErr != nil {
				closeAll()
				return nil, noop, errors.Join(errs.ErrInvalidInput, openErr)
			}
			opened = append(opened, f)
			parts = append(parts, serviceclient.FilePart{Field: field, Filename: fh.Filename, Content: f})
		}
	}
	return parts, closeAll, nil
}
