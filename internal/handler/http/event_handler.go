package httphandler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	domainevent "github.com/lllypuk/eventboard/internal/domain/event"
	"github.com/lllypuk/eventboard/internal/domain/record"
	"github.com/lllypuk/eventboard/internal/infrastructure/httpserver"
)

// EventService defines the event record operations the handler needs.
type EventService interface {
	Submit(ctx context.Context, fields record.Fields) (*domainevent.Event, error)
	Edit(ctx context.Context, id string, fields record.Fields) (*domainevent.Event, error)
	FindAll(ctx context.Context) ([]*domainevent.Event, error)
	SearchByName(ctx context.Context, query string) ([]*domainevent.Event, error)
	FindByID(ctx context.Context, id string) ([]*domainevent.Event, error)
}

// CreatedResponse carries the identifier of a new record.
type CreatedResponse struct {
	ID string `json:"id"`
}

// EventListResponse is the body of every event read.
type EventListResponse struct {
	Events    []*domainevent.Event `json:"events"`
	NumEvents int                  `json:"num_events"`
}

func newEventList(events []*domainevent.Event) EventListResponse {
	if events == nil {
		events = []*domainevent.Event{}
	}
	return EventListResponse{Events: events, NumEvents: len(events)}
}

// EventHandler serves the events service API.
type EventHandler struct {
	events EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

// RegisterRoutes registers event routes on the API group.
func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/add", h.Add)
	g.PUT("/edit/:event_id", h.Edit)
	g.GET("/", h.List)
	g.GET("/search", h.Search)
	g.GET("/:event_id", h.Get)
	// Older clients fetch a single event with PUT.
	g.PUT("/:event_id", h.Get)
}

// Add handles POST /v1/add.
func (h *EventHandler) Add(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	e, err := h.events.Submit(c.Request().Context(), fields)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondCreated(c, CreatedResponse{ID: e.ID})
}

// Edit handles PUT /v1/edit/:event_id.
func (h *EventHandler) Edit(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	e, err := h.events.Edit(c.Request().Context(), c.Param("event_id"), fields)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, newEventList([]*domainevent.Event{e}))
}

// List handles GET /v1/.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.events.FindAll(c.Request().Context())
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, newEventList(events))
}

// Search handles GET /v1/search?name=. The name parameter is required.
func (h *EventHandler) Search(c echo.Context) error {
	if !c.QueryParams().Has("name") {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest,
			"INVALID_INPUT", "You must supply a 'name' query parameter")
	}

	events, err := h.events.SearchByName(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, newEventList(events))
}

// Get handles GET /v1/:event_id. An unknown id is an empty list.
func (h *EventHandler) Get(c echo.Context) error {
	events, err := h.events.FindByID(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	return httpserver.RespondOK(c, newEventList(events))
}
