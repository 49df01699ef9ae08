package httphandler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/eventboard/internal/domain/errs"
	domainpost "github.com/lllypuk/eventboard/internal/domain/post"
	"github.com/lllypuk/eventboard/internal/domain/record"
	"github.com/lllypuk/eventboard/internal/infrastructure/httpserver"
)

// PostService defines the post record operations the handler needs.
type PostService interface {
	Submit(ctx context.Context, fields record.Fields) (*domainpost.Post, error)
	FindAll(ctx context.Context) ([]*domainpost.Post, error)
	FindByID(ctx context.Context, id string) ([]*domainpost.Post, error)
	FindByEvent(ctx context.Context, eventID string) ([]*domainpost.Post, error)
	Delete(ctx context.Context, id, authorID string) error
}

// Uploader stores an attached file and returns its public reference.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// PostListResponse is the body of every post read.
type PostListResponse struct {
	Posts    []*domainpost.Post `json:"posts"`
	NumPosts int                `json:"num_posts"`
}

func newPostList(posts []*domainpost.Post) PostListResponse {
	if posts == nil {
		posts = []*domainpost.Post{}
	}
	return PostListResponse{Posts: posts, NumPosts: len(posts)}
}

// PostHandler serves the posts service API.
type PostHandler struct {
	posts    PostService
	uploader Uploader
	logger   *slog.Logger
}

// NewPostHandler creates a new PostHandler. Without an uploader the names of
// attached files are stored as their references.
func NewPostHandler(posts PostService, uploader Uploader, logger *slog.Logger) *PostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostHandler{posts: posts, uploader: uploader, logger: logger}
}

// RegisterRoutes registers post routes on the API group.
func (h *PostHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/add", h.Add)
	g.GET("/", h.List)
	g.GET("/by_event/:event_id", h.ListByEvent)
	g.GET("/:post_id", h.Get)
	g.DELETE("/:post_id", h.Delete)
}

// Add handles POST /v1/add. The post is read from a JSON object or from form
// values, with multipart files uploaded as attachments.
func (h *PostHandler) Add(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		fields record.Fields
		err    error
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		fields, err = h.bindJSON(c)
	} else {
		fields, err = h.bindForm(c)
	}
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	p, err := h.posts.Submit(ctx, fields)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondCreated(c, CreatedResponse{ID: p.ID})
}

var requiredPostKeys = []string{domainpost.FieldEventID, domainpost.FieldAuthorID, domainpost.FieldText}

func (h *PostHandler) bindJSON(c echo.Context) (record.Fields, error) {
	fields, err := bindFields(c)
	if err != nil {
		return nil, err
	}
	for _, key := range requiredPostKeys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing field %s", errs.ErrInvalidInput, key)
		}
	}
	if fields[domainpost.FieldFiles] == nil {
		fields[domainpost.FieldFiles] = []string{}
	}
	return fields, nil
}

func (h *PostHandler) bindForm(c echo.Context) (record.Fields, error) {
	form, err := c.FormParams()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	fields := record.Fields{}
	for _, key := range requiredPostKeys {
		if !form.Has(key) {
			return nil, fmt.Errorf("%w: missing form field %s", errs.ErrInvalidInput, key)
		}
		fields[key] = form.Get(key)
	}

	files := make([]string, 0, len(form[domainpost.FieldFiles]))
	for _, ref := range form[domainpost.FieldFiles] {
		if strings.TrimSpace(ref) != "" {
			files = append(files, ref)
		}
	}

	uploaded, err := h.uploadAttachments(c)
	if err != nil {
		return nil, err
	}
	fields[domainpost.FieldFiles] = append(files, uploaded...)
	return fields, nil
}

func (h *PostHandler) uploadAttachments(c echo.Context) ([]string, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}

	mf, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	var refs []string
	for _, headers := range mf.File {
		for _, fh := range headers {
			ref, uploadErr := h.upload(c.Request().Context(), fh)
			if uploadErr != nil {
				return nil, uploadErr
			}
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (h *PostHandler) upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if h.uploader == nil {
		return fh.Filename, nil
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%w: cannot read %s: %w", errs.ErrInvalidInput, fh.Filename, err)
	}
	defer f.Close()

	url, err := h.uploader.Upload(ctx, fh.Filename, f)
	if err != nil {
		h.logger.ErrorContext(ctx, "attachment upload failed",
			slog.String("filename", fh.Filename),
			slog.String("error", err.Error()))
		return "", err
	}
	return url, nil
}

// List handles GET /v1/.
func (h *PostHandler) List(c echo.Context) error {
	posts, err := h.posts.FindAll(c.Request().Context())
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, newPostList(posts))
}

// Get handles GET /v1/:post_id.
func (h *PostHandler) Get(c echo.Context) error {
	posts, err := h.posts.FindByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, newPostList(posts))
}

// ListByEvent handles GET /v1/by_event/:event_id.
func (h *PostHandler) ListByEvent(c echo.Context) error {
	posts, err := h.posts.FindByEvent(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, newPostList(posts))
}

// Delete handles DELETE /v1/:post_id?author_id=. Only the author's own post is
// removed.
func (h *PostHandler) Delete(c echo.Context) error {
	authorID := c.QueryParam(domainpost.FieldAuthorID)
	if authorID == "" {
		return httpserver.RespondError(c, fmt.Errorf("%w: missing author_id", errs.ErrInvalidInput))
	}

	if err := h.posts.Delete(c.Request().Context(), c.Param("post_id"), authorID); err != nil {
		return httpserver.RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
