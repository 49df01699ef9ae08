package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/eventboard/internal/application/appcore"
)

// DefaultStackSize is the default stack trace size (4KB).
const DefaultStackSize = 4 << 10

// Recovery turns a handler panic into a 500 response and logs it with the stack
// of the panicking goroutine.
func Recovery(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				panicErr, ok := r.(error)
				if !ok {
					panicErr = fmt.Errorf("%v", r)
				}

				stack := make([]byte, DefaultStackSize)
				stack = stack[:runtime.Stack(stack, false)]

				req := c.Request()
				logger.ErrorContext(req.Context(), "panic recovered",
					slog.String("error", panicErr.Error()),
					slog.String("method", req.Method),
					slog.String("path", req.URL.Path),
					slog.String("request_id", appcore.GetRequestID(req.Context())),
					slog.String("stack", string(stack)),
				)

				if !c.Response().Committed {
					err = c.String(http.StatusInternalServerError, "Internal server error.")
				}
			}()

			return next(c)
		}
	}
}
