// Package user defines the user profile record and its organizer flag.
package user

import (
	"encoding/json"

	"github.com/lllypuk/eventboard/internal/domain/record"
)

// Field names of a stored user.
const (
	FieldID          = "_id"
	FieldUserID      = "user_id"
	FieldName        = "name"
	FieldIsOrganizer = "is_organizer"
)

// RequiredFields must be present on every upsert. Other fields are kept as submitted.
var RequiredFields = []string{FieldUserID, FieldName}

// User is a user profile keyed by UserID.
type User struct {
	UserID      string
	Name        string
	IsOrganizer bool
	// Extra holds every submitted field beyond the known ones.
	Extra record.Fields
}

// FromSubmission validates an upsert payload. The organizer flag is never taken
// from the submission; a submitted profile is always a non-organizer.
func FromSubmission(fields record.Fields) (*User, error) {
	if err := record.RequireAll(fields, RequiredFields...); err != nil {
		return nil, err
	}

	userID, err := fields.String(FieldUserID)
	if err != nil {
		return nil, err
	}
	name, err := fields.String(FieldName)
	if err != nil {
		return nil, err
	}

	return &User{
		UserID: userID,
		Name:   name,
		Extra:  extraFields(fields),
	}, nil
}

// FromFields decodes a stored user document.
func FromFields(doc record.Fields) (*User, error) {
	userID, err := doc.String(FieldUserID)
	if err != nil {
		return nil, err
	}
	name, err := doc.String(FieldName)
	if err != nil {
		return nil, err
	}

	return &User{
		UserID:      userID,
		Name:        name,
		IsOrganizer: OrganizerFlag(doc),
		Extra:       extraFields(doc),
	}, nil
}

// OrganizerFlag reads is_organizer from a stored document. Anything but a stored
// boolean reads as false.
func OrganizerFlag(doc record.Fields) bool {
	flag, ok := doc[FieldIsOrganizer].(bool)
	return ok && flag
}

// Fields returns the persisted representation: extra fields plus the known ones.
func (u *User) Fields() record.Fields {
	out := make(record.Fields, len(u.Extra)+3)
	for k, v := range u.Extra {
		out[k] = v
	}
	out[FieldUserID] = u.UserID
	out[FieldName] = u.Name
	out[FieldIsOrganizer] = u.IsOrganizer
	return out
}

// MarshalJSON renders the user as its flat stored document.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(u.Fields()))
}

func extraFields(fields record.Fields) record.Fields {
	extra := record.Fields{}
	for k, v := range fields {
		switch k {
		case FieldID, FieldUserID, FieldName, FieldIsOrganizer:
			continue
		}
		extra[k] = v
	}
	return extra
}
