// Package record holds the submitted-record contract shared by events, posts and users:
// a record arrives as a mapping of field name to value and is checked against the
// field set its entity requires before anything is persisted.
package record

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lllypuk/eventboard/internal/domain/errs"
)

// Fields is a submitted record keyed by field name.
type Fields map[string]any

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Has reports whether the field is present, regardless of its value.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Clone returns a shallow copy of the record.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// MismatchError describes how a submitted field set differs from the required one.
type MismatchError struct {
	Missing []string
	Extra   []string
}

func (e *MismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}
	return fmt.Sprintf("%s: %s", errs.ErrFieldMismatch.Error(), strings.Join(parts, "; "))
}

// Unwrap makes errors.Is(err, errs.ErrFieldMismatch) hold.
func (e *MismatchError) Unwrap() error {
	return errs.ErrFieldMismatch
}

// RequireExact checks that the submitted key set equals required: a missing key and
// an extra key are both rejected.
func RequireExact(f Fields, required ...string) error {
	missing := missingKeys(f, required)

	var extra []string
	for _, k := range f.Keys() {
		if !slices.Contains(required, k) {
			extra = append(extra, k)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	return &MismatchError{Missing: missing, Extra: extra}
}

// RequireAll checks that every required key is present. Other keys are allowed.
func RequireAll(f Fields, required ...string) error {
	missing := missingKeys(f, required)
	if len(missing) == 0 {
		return nil
	}
	return &MismatchError{Missing: missing}
}

func missingKeys(f Fields, required []string) []string {
	var missing []string
	for _, k := range required {
		if !f.Has(k) {
			missing = append(missing, k)
		}
	}
	slices.Sort(missing)
	return missing
}

// String returns the named field as a string.
func (f Fields) String(key string) (string, error) {
	switch v := f[key].(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s must be a string, got %T", errs.ErrInvalidField, key, v)
	}
}

// StringList returns the named field as a list of strings. A null value is an empty list.
func (f Fields) StringList(key string) ([]string, error) {
	switch v := f[key].(type) {
	case nil:
		return []string{}, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string, got %T", errs.ErrInvalidField, key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list of strings, got %T", errs.ErrInvalidField, key, v)
	}
}

// timeLayouts are the accepted textual timestamp formats, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
	"1-2-2006",
	"1/2/2006",
}

// Time returns the named field as a timestamp, parsing strings in any accepted layout.
func (f Fields) Time(key string) (time.Time, error) {
	switch v := f[key].(type) {
	case time.Time:
		return v, nil
	case string:
		return ParseTime(v)
	default:
		return time.Time{}, fmt.Errorf("%w: %s must be a timestamp, got %T", errs.ErrInvalidField, key, v)
	}
}

// ParseTime parses s using the accepted timestamp layouts. Zone-less values are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", errs.ErrInvalidField, s)
}
