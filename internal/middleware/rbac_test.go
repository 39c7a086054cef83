package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGuard(t *testing.T, mw echo.MiddlewareFunc, setup func(echo.Context)) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}

	reached := false
	h := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, reached
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	rec, reached := runGuard(t, RequireRoles("admin"), func(c echo.Context) {
		c.Set("role", "admin")
	})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRolesRejectsOtherRole(t *testing.T) {
	rec, reached := runGuard(t, RequireRoles("admin"), func(c echo.Context) {
		c.Set("role", "user")
	})
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesRejectsMissingRole(t *testing.T) {
	rec, reached := runGuard(t, RequireRoles("admin"), nil)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireShopNeedsShopIdentity(t *testing.T) {
	rec, reached := runGuard(t, echo.MiddlewareFunc(func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireShop(next)
	}), func(c echo.Context) {
		c.Set("user_id", int64(3))
	})
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, reached = runGuard(t, echo.MiddlewareFunc(func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireShop(next)
	}), func(c echo.Context) {
		c.Set("shop_id", int64(7))
	})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}
