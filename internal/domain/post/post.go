// Package post defines the post record attached to an event.
package post

import (
	"time"

	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/domain/record"
)

// Field names of a stored post.
const (
	FieldID        = "_id"
	FieldEventID   = "event_id"
	FieldAuthorID  = "author_id"
	FieldText      = "text"
	FieldFiles     = "files"
	FieldCreatedAt = "created_at"
)

// RequiredFields is the exact field set a post submission must carry.
var RequiredFields = []string{FieldEventID, FieldAuthorID, FieldText, FieldFiles}

// Post is a validated post. Files holds media references (URLs or names).
type Post struct {
	ID        string    `json:"_id,omitempty"`
	EventID   string    `json:"event_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Validate checks the key set, then requires non-empty text or at least one file.
func Validate(fields record.Fields) (*Post, error) {
	if err := record.RequireExact(fields, RequiredFields...); err != nil {
		return nil, err
	}

	p := &Post{}
	var err error
	if p.EventID, err = fields.String(FieldEventID); err != nil {
		return nil, err
	}
	if p.AuthorID, err = fields.String(FieldAuthorID); err != nil {
		return nil, err
	}
	if p.Text, err = fields.String(FieldText); err != nil {
		return nil, err
	}
	if p.Files, err = fields.StringList(FieldFiles); err != nil {
		return nil, err
	}

	if p.Text == "" && len(p.Files) == 0 {
		return nil, errs.ErrEmptyBody
	}
	return p, nil
}

// Fields returns the persisted representation of the post, without its identifier.
func (p *Post) Fields() record.Fields {
	files := p.Files
	if files == nil {
		files = []string{}
	}
	return record.Fields{
		FieldEventID:   p.EventID,
		FieldAuthorID:  p.AuthorID,
		FieldText:      p.Text,
		FieldFiles:     files,
		FieldCreatedAt: p.CreatedAt,
	}
}

// FromFields decodes a stored post. Absent fields are left zero.
func FromFields(doc record.Fields) (*Post, error) {
	p := &Post{}
	var err error

	if p.ID, err = doc.String(FieldID); err != nil {
		return nil, err
	}
	if p.EventID, err = doc.String(FieldEventID); err != nil {
		return nil, err
	}
	if p.AuthorID, err = doc.String(FieldAuthorID); err != nil {
		return nil, err
	}
	if p.Text, err = doc.String(FieldText); err != nil {
		return nil, err
	}
	if p.Files, err = doc.StringList(FieldFiles); err != nil {
		return nil, err
	}
	if doc[FieldCreatedAt] != nil {
		if p.CreatedAt, err = doc.Time(FieldCreatedAt); err != nil {
			return nil, err
		}
	}

	return p, nil
}
