package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/model"
)

// AuthCookieName carries the local session token for browser clients.
const AuthCookieName = "health_auth"

const principalKey = "principal"

// SetPrincipal attaches the authenticated caller to the request context.
func SetPrincipal(c echo.Context, p *model.Principal) {
	c.Set(principalKey, p)
}

func PrincipalFrom(c echo.Context) (*model.Principal, bool) {
	p, ok := c.Get(principalKey).(*model.Principal)
	return p, ok && p != nil
}

func unauthenticated(c echo.Context) error {
	return Error(c, http.StatusUnauthorized, "Authentication required")
}
