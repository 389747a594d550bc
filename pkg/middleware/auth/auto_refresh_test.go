package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/chat_shop/pkg/authclient"
	"github.com/Skotchmaster/chat_shop/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

type stubRefresher struct {
	resp  *authclient.RefreshResponse
	err   error
	calls int
}

func (s *stubRefresher) RefreshTokens(_ context.Context, _ string) (*authclient.RefreshResponse, error) {
	s.calls++
	return s.resp, s.err
}

func sign(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.SignAccess(tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, secret)
	require.NoError(t, err)
	return tok
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, c.Get(CtxRole).(string))
}

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, mw(okHandler)(c)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he.Code
}

func TestRequireRoles_BearerToken(t *testing.T) {
	t.Parallel()

	m := NewAutoRefreshMiddleware(secret, nil)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, "amira", time.Now().Add(time.Minute)))

	rec, err := run(t, m.RequireRoles("ADMIN", "AMIRA"), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "amira", rec.Body.String())
}

func TestRequireRoles_Rejections(t *testing.T) {
	t.Parallel()

	m := NewAutoRefreshMiddleware(secret, nil)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{name: "no token", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "customer role", cookie: sign(t, "USER", time.Now().Add(time.Minute)), want: http.StatusForbidden},
		{name: "expired without refresher", cookie: sign(t, "ADMIN", time.Now().Add(-time.Minute)), want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: accessCookie, Value: tt.cookie})
			}

			_, err := run(t, m.RequireRoles("ADMIN"), req)
			require.Error(t, err)
			assert.Equal(t, tt.want, statusOf(t, err))
		})
	}
}

func TestRequireAuth_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	fresh := sign(t, "ADMIN", time.Now().Add(time.Minute))
	ref := &stubRefresher{resp: &authclient.RefreshResponse{
		AccessToken:  fresh,
		RefreshToken: "rotated",
		AccessExp:    time.Now().Add(time.Minute).Unix(),
		RefreshExp:   time.Now().Add(time.Hour).Unix(),
	}}
	m := NewAutoRefreshMiddleware(secret, ref)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: accessCookie, Value: sign(t, "ADMIN", time.Now().Add(-time.Minute))})
	req.AddCookie(&http.Cookie{Name: refreshCookie, Value: "old"})

	rec, err := run(t, m.RequireAuth, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ref.calls)

	cookies := rec.Result().Cookies()
	names := map[string]string{}
	for _, ck := range cookies {
		names[ck.Name] = ck.Value
	}
	assert.Equal(t, fresh, names[accessCookie])
	assert.Equal(t, "rotated", names[refreshCookie])
}

func TestRequireAuth_RefreshFailureClearsCookies(t *testing.T) {
	t.Parallel()

	m := NewAutoRefreshMiddleware(secret, &stubRefresher{err: errors.New("revoked")})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: accessCookie, Value: sign(t, "ADMIN", time.Now().Add(-time.Minute))})
	req.AddCookie(&http.Cookie{Name: refreshCookie, Value: "old"})

	rec, err := run(t, m.RequireAuth, req)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	for _, ck := range rec.Result().Cookies() {
		assert.Equal(t, -1, ck.MaxAge)
	}
}
