package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/util"
)

const refreshCookiePath = "/api/v1/auth/refresh"

// CookieSettings controls how the auth cookies are scoped. Secure should only
// be disabled for local development over plain HTTP.
type CookieSettings struct {
	Domain string
	Secure bool
}

type AuthHandler struct {
	auth    *service.AuthService
	cookies CookieSettings
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, tokens *service.TokenManager, cookies CookieSettings) {
	handler := &AuthHandler{auth: auth, cookies: cookies}

	group := e.Group("/api/v1/auth")
	group.POST("/register", handler.register)
	group.POST("/login", handler.login)
	group.POST("/google", handler.loginWithGoogle)
	group.POST("/refresh", handler.refresh)
	group.POST("/forgot-password", handler.forgotPassword)
	group.POST("/reset-password", handler.resetPassword)

	private := group.Group("", RequireAuth(tokens))
	private.POST("/logout", handler.logout)
	private.POST("/change-password", handler.changePassword)
	private.GET("/me", handler.me)
	private.PUT("/me", handler.updateProfile)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	pair, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusCreated, util.Data(pair))
}

func (h *AuthHandler) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	pair, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, util.Data(pair))
}

func (h *AuthHandler) loginWithGoogle(c echo.Context) error {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := c.Bind(&req); err != nil || req.IDToken == "" {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "id_token is required"))
	}
	pair, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, util.Data(pair))
}

// refresh rotates the refresh token: the presented token is retired and a new
// pair is issued. A reused (already rotated) token fails with SESSION_NOT_FOUND.
func (h *AuthHandler) refresh(c echo.Context) error {
	token := ""
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.Bind(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "refresh token required"))
	}

	pair, err := h.auth.Refresh(c.Request().Context(), token)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, util.Data(pair))
}

func (h *AuthHandler) logout(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	if err := h.auth.Logout(c.Request().Context(), claims.SessionID); err != nil {
		return h.writeAuthError(c, err)
	}
	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, util.Data(echo.Map{"logged_out": true}))
}

func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "email is required"))
	}
	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return h.writeAuthError(c, err)
	}
	// Always the same answer, whether or not the account exists.
	return c.JSON(http.StatusOK, util.Data(echo.Map{"sent": true}))
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{"reset": true}))
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	if err := h.auth.ChangePassword(c.Request().Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{"changed": true}))
}

func (h *AuthHandler) me(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	user, err := h.auth.Profile(c.Request().Context(), claims.UserID)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(user))
}

func (h *AuthHandler) updateProfile(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	var req struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
		ImageURL *string `json:"image_url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	user, err := h.auth.UpdateProfile(c.Request().Context(), claims.UserID, req.FullName, req.Phone, req.ImageURL)
	if err != nil {
		return h.writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(user))
}

// setAuthCookies scopes the access token to the whole site and the refresh
// token to the refresh endpoint only, so the long-lived credential is never
// sent with ordinary API calls.
func (h *AuthHandler) setAuthCookies(c echo.Context, pair *service.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   h.cookies.Domain,
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     refreshCookiePath,
		Domain:   h.cookies.Domain,
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	expired := time.Unix(0, 0)
	c.SetCookie(&http.Cookie{
		Name: accessTokenCookie, Value: "", Path: "/", Domain: h.cookies.Domain,
		Expires: expired, MaxAge: -1, HttpOnly: true, Secure: h.cookies.Secure,
	})
	c.SetCookie(&http.Cookie{
		Name: refreshTokenCookie, Value: "", Path: refreshCookiePath, Domain: h.cookies.Domain,
		Expires: expired, MaxAge: -1, HttpOnly: true, Secure: h.cookies.Secure,
	})
}

func (h *AuthHandler) writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, util.Error("INVALID_CREDENTIALS", "email or password is incorrect"))
	case errors.Is(err, service.ErrEmailAlreadyInUse):
		return c.JSON(http.StatusConflict, util.Error("EMAIL_IN_USE", "an account with that email already exists"))
	case errors.Is(err, service.ErrAccountDisabled):
		return c.JSON(http.StatusForbidden, util.Error("ACCOUNT_DISABLED", "this account has been disabled"))
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrTokenExpired), errors.Is(err, service.ErrTokenInvalid):
		return c.JSON(http.StatusUnauthorized, util.Error("SESSION_INVALID", "session is no longer valid"))
	case errors.Is(err, service.ErrInvalidResetCode):
		return c.JSON(http.StatusBadRequest, util.Error("INVALID_RESET_CODE", "reset code is invalid or expired"))
	case errors.Is(err, service.ErrWeakPassword):
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "user not found"))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("INTERNAL", "internal error"))
	}
}
