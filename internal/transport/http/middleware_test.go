package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/service"
)

func newTestTokens(t *testing.T) *service.TokenManager {
	t.Helper()
	tokens, err := service.NewTokenManager("test-secret", 15*time.Minute, 24*time.Hour, 2*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return tokens
}

func okHandler(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.String(http.StatusOK, claims.UserID.String())
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success   bool   `json:"success"`
		ErrorCode string `json:"errorCode"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	if body.Success {
		t.Fatalf("expected success=false in %q", rec.Body.String())
	}
	return body.ErrorCode
}

func TestRequireAuthMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireAuth(newTestTokens(t))(okHandler)
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec); code != "TOKEN_MISSING" {
		t.Fatalf("errorCode = %q, want TOKEN_MISSING", code)
	}
}

func TestRequireAuthAccessCookie(t *testing.T) {
	tokens := newTestTokens(t)
	userID := uuid.New()
	access, _, err := tokens.IssueAccess(userID, uuid.New(), domain.RoleMember)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: access})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireAuth(tokens)(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != userID.String() {
		t.Fatalf("body = %q, want the authenticated user id", rec.Body.String())
	}
}

func TestRequireAuthBearerFallback(t *testing.T) {
	tokens := newTestTokens(t)
	access, _, err := tokens.IssueAccess(uuid.New(), uuid.New(), domain.RoleStaff)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireAuth(tokens)(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	issuing, err := service.NewTokenManager("test-secret", -time.Minute, time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	access, _, err := issuing.IssueAccess(uuid.New(), uuid.New(), domain.RoleMember)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: access})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireAuth(newTestTokens(t))(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec); code != "TOKEN_EXPIRED" {
		t.Fatalf("errorCode = %q, want TOKEN_EXPIRED", code)
	}
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	tokens := newTestTokens(t)
	refresh, _, err := tokens.IssueRefresh(uuid.New(), uuid.New(), domain.RoleMember)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: refresh})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireAuth(tokens)(okHandler)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if code := decodeErrorCode(t, rec); code != "TOKEN_INVALID" {
		t.Fatalf("errorCode = %q, want TOKEN_INVALID for a refresh token", code)
	}
}

func TestRequireRoles(t *testing.T) {
	tokens := newTestTokens(t)
	e := echo.New()

	run := func(role domain.Role) *httptest.ResponseRecorder {
		access, _, err := tokens.IssueAccess(uuid.New(), uuid.New(), role)
		if err != nil {
			t.Fatalf("IssueAccess: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: access})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		chain := RequireAuth(tokens)(RequireRoles(domain.NewRoleSet(domain.RoleStaff, domain.RoleManager))(okHandler))
		if err := chain(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
		return rec
	}

	if rec := run(domain.RoleMember); rec.Code != http.StatusForbidden {
		t.Fatalf("member status = %d, want %d", rec.Code, http.StatusForbidden)
	} else if code := decodeErrorCode(t, rec); code != "FORBIDDEN" {
		t.Fatalf("errorCode = %q, want FORBIDDEN", code)
	}
	if rec := run(domain.RoleStaff); rec.Code != http.StatusOK {
		t.Fatalf("staff status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := run(domain.RoleManager); rec.Code != http.StatusOK {
		t.Fatalf("manager status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireRoles(domain.NewRoleSet(domain.RoleManager))(okHandler)
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d when no claims are set", rec.Code, http.StatusUnauthorized)
	}
}
