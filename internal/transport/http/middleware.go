package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/util"
)

const (
	contextClaimsKey = "auth.claims"

	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// RequireAuth authenticates a request from the access-token cookie or, for
// non-browser clients, a bearer Authorization header. Validation is purely
// stateless: the signature and expiry of the JWT decide, no session lookup.
func RequireAuth(tokens *service.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractAccessToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
			}
			claims, err := tokens.ParseKind(token, service.TokenKindAccess)
			if err != nil {
				if errors.Is(err, service.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_EXPIRED", "access token has expired"))
				}
				return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_INVALID", "access token is not valid"))
			}
			c.Set(contextClaimsKey, claims)
			return next(c)
		}
	}
}

// RequireRoles gates a route group to the given roles. Must run after
// RequireAuth.
func RequireRoles(allowed domain.RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := CurrentClaims(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
			}
			if !allowed.Contains(claims.Role) {
				return c.JSON(http.StatusForbidden, util.Error("FORBIDDEN", "insufficient role for this resource"))
			}
			return next(c)
		}
	}
}

func CurrentClaims(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*service.Claims)
	return claims, ok && claims != nil
}

func extractAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
