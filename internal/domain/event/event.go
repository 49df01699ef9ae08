// Package event defines the event record: the fields a submission must carry and
// the shape an event takes once stored.
package event

import (
	"time"

	"github.com/lllypuk/eventboard/internal/domain/record"
)

// Field names of a stored event.
const (
	FieldID          = "_id"
	FieldName        = "event_name"
	FieldDescription = "description"
	FieldAuthorID    = "author_id"
	FieldEventTime   = "event_time"
	FieldCreatedAt   = "created_at"
)

// RequiredFields is the exact field set an event submission must carry.
var RequiredFields = []string{FieldName, FieldDescription, FieldAuthorID, FieldEventTime}

// Event is a validated event. ID and CreatedAt are assigned by the service on creation.
type Event struct {
	ID          string    `json:"_id,omitempty"`
	Name        string    `json:"event_name"`
	Description string    `json:"description"`
	AuthorID    string    `json:"author_id"`
	EventTime   time.Time `json:"event_time"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// Validate checks a submitted record against RequiredFields and decodes it.
func Validate(fields record.Fields) (*Event, error) {
	if err := record.RequireExact(fields, RequiredFields...); err != nil {
		return nil, err
	}

	name, err := fields.String(FieldName)
	if err != nil {
		return nil, err
	}
	description, err := fields.String(FieldDescription)
	if err != nil {
		return nil, err
	}
	authorID, err := fields.String(FieldAuthorID)
	if err != nil {
		return nil, err
	}
	eventTime, err := fields.Time(FieldEventTime)
	if err != nil {
		return nil, err
	}

	return &Event{
		Name:        name,
		Description: description,
		AuthorID:    authorID,
		EventTime:   eventTime,
	}, nil
}

// Fields returns the persisted representation of the event, without its identifier.
func (e *Event) Fields() record.Fields {
	return record.Fields{
		FieldName:        e.Name,
		FieldDescription: e.Description,
		FieldAuthorID:    e.AuthorID,
		FieldEventTime:   e.EventTime,
		FieldCreatedAt:   e.CreatedAt,
	}
}

// FromFields decodes a stored event. Absent fields are left zero.
func FromFields(doc record.Fields) (*Event, error) {
	e := &Event{}
	var err error

	if e.ID, err = doc.String(FieldID); err != nil {
		return nil, err
	}
	if e.Name, err = doc.String(FieldName); err != nil {
		return nil, err
	}
	if e.Description, err = doc.String(FieldDescription); err != nil {
		return nil, err
	}
	if e.AuthorID, err = doc.String(FieldAuthorID); err != nil {
		return nil, err
	}
	if doc[FieldEventTime] != nil {
		if e.EventTime, err = doc.Time(FieldEventTime); err != nil {
			return nil, err
		}
	}
	if doc[FieldCreatedAt] != nil {
		if e.CreatedAt, err = doc.Time(FieldCreatedAt); err != nil {
			return nil, err
		}
	}

	return e, nil
}
