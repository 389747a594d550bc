package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type Config struct {
	CookieName string
	HeaderName string
	Secure     bool
	MaxAge     time.Duration
}

func DefaultConfig() Config {
	return Config{
		CookieName: "XSRF-TOKEN",
		HeaderName: "X-CSRF-Token",
		Secure:     true,
		MaxAge:     24 * time.Hour,
	}
}

// Middleware guards cookie-authenticated staff requests with a double-submit
// token. Requests that carry a bearer token are not cookie-driven and pass through.
func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if strings.HasPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ") {
				return next(c)
			}

			token := ""
			if ck, err := req.Cookie(cfg.CookieName); err == nil {
				token = ck.Value
			}

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if token == "" {
					var err error
					if token, err = newToken(); err != nil {
						return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
					}
					c.SetCookie(&http.Cookie{
						Name:     cfg.CookieName,
						Value:    token,
						Path:     "/",
						Secure:   cfg.Secure,
						MaxAge:   int(cfg.MaxAge.Seconds()),
						SameSite: http.SameSiteLaxMode,
					})
				}
				c.Response().Header().Set(cfg.HeaderName, token)
				return next(c)
			}

			if origin := req.Header.Get(echo.HeaderOrigin); origin != "" && !sameHost(origin, req.Host) {
				return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
			}
			provided := req.Header.Get(cfg.HeaderName)
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}
			return next(c)
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
