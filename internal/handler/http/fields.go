// Package httphandler contains the echo handlers of the events, posts, users and
// pageserve services.
package httphandler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/domain/record"
)

// bindFields decodes the submitted record from a JSON object body or from form
// values. A form key sent once becomes a string, a repeated key a list.
func bindFields(c echo.Context) (record.Fields, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var fields record.Fields
		if err := json.NewDecoder(req.Body).Decode(&fields); err != nil {
			return nil, fmt.Errorf("%w: body is not a JSON object: %w", errs.ErrInvalidInput, err)
		}
		if fields == nil {
			return nil, fmt.Errorf("%w: body is not a JSON object", errs.ErrInvalidInput)
		}
		return fields, nil
	}

	form, err := c.FormParams()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	fields := make(record.Fields, len(form))
	for key, values := range form {
		if len(values) == 1 {
			fields[key] = values[0]
			continue
		}
		fields[key] = values
	}
	return fields, nil
}
