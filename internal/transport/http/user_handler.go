package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/util"
)

type UserHandler struct {
	auth *service.AuthService
}

// RegisterUsers wires the account administration endpoints. Role and
// activation changes are manager only.
func RegisterUsers(e *echo.Echo, tokens *service.TokenManager, auth *service.AuthService) {
	handler := &UserHandler{auth: auth}

	group := e.Group("/api/v1/users", RequireAuth(tokens), RequireRoles(domain.NewRoleSet(domain.RoleManager)))
	group.GET("", handler.list)
	group.PUT("/:id/role", handler.setRole)
	group.PUT("/:id/active", handler.setActive)
}

func (h *UserHandler) list(c echo.Context) error {
	var role *domain.Role
	if v := strings.TrimSpace(c.QueryParam("role")); v != "" {
		r := domain.Role(v)
		role = &r
	}
	limit, offset := parsePagination(c, 50, 0)
	users, err := h.auth.ListUsers(c.Request().Context(), role, limit, offset)
	if err != nil {
		return h.writeUserError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(users))
}

func (h *UserHandler) setRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "user id must be a valid UUID"))
	}
	var body struct {
		Role domain.Role `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	user, err := h.auth.SetUserRole(c.Request().Context(), id, body.Role)
	if err != nil {
		return h.writeUserError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(user))
}

func (h *UserHandler) setActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "user id must be a valid UUID"))
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&body); err != nil || body.Active == nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "active must be provided as a boolean"))
	}
	user, err := h.auth.SetUserActive(c.Request().Context(), id, *body.Active)
	if err != nil {
		return h.writeUserError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(user))
}

func (h *UserHandler) writeUserError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRole):
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "user not found"))
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, util.Error("INTERNAL", "something went wrong"))
	}
}
