package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/case-workflow/internal/domain"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

var office = domain.Principal{Role: domain.RoleIntakeOffice, Office: "Comisaria de Familia"}

func TestTokenCarriesRoleAndOffice(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expiresAt, err := tm.GenerateToken(office)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, office, claims.Principal())

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsInvalidPrincipals(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	for _, p := range []domain.Principal{
		{Role: "ADMIN"},
		{Role: domain.RoleIntakeOffice},
		{Role: domain.RoleCoordinatingAuthority, Office: "Comisaria"},
	} {
		_, _, err := tm.GenerateToken(p)
		assert.Error(t, err, "%+v", p)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := tm.GenerateToken(office)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func newTestApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			derr := apperrors.ToDomainError(err)
			return c.Status(derr.HTTPStatus).SendString(derr.Code)
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(string(p.Role) + "|" + p.Office)
	})
	app.Get("/authorities", mw.Handle, RequireAuthorities(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestMiddlewareResolvesPrincipal(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newTestApp(tm)
	officeToken, _, err := tm.GenerateToken(office)
	require.NoError(t, err)
	coordToken, _, err := tm.GenerateToken(domain.Principal{Role: domain.RoleCoordinatingAuthority})
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"bad scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", http.StatusUnauthorized},
		{"office token", "/me", "Bearer " + officeToken, http.StatusOK},
		{"office on authority route", "/authorities", "Bearer " + officeToken, http.StatusForbidden},
		{"coordinator on authority route", "/authorities", "Bearer " + coordToken, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
