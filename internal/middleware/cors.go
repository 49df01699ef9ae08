package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultCORSMaxAge is the preflight cache duration in seconds (24 hours).
const DefaultCORSMaxAge = 86400

// CORS allows browser calls from origins. No origins means any origin without
// credentials; explicit origins also allow the session cookie.
func CORS(origins []string) echo.MiddlewareFunc {
	cfg := middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET,
			echo.HEAD,
			echo.PUT,
			echo.POST,
			echo.DELETE,
			echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestID,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
		MaxAge:        DefaultCORSMaxAge,
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return middleware.CORSWithConfig(cfg)
}
