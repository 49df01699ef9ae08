package httphandler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCookie describes the pageserve session cookie.
type SessionCookie struct {
	Name   string
	Secure bool
}

func (s SessionCookie) set(c echo.Context, sessionID string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     s.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure || c.Scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s SessionCookie) value(c echo.Context) string {
	cookie, err := c.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s SessionCookie) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
