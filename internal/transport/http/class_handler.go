package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/util"
)

type ClassHandler struct {
	classes *service.ClassService
}

func RegisterClasses(e *echo.Echo, tokens *service.TokenManager, classes *service.ClassService) {
	handler := &ClassHandler{classes: classes}

	member := e.Group("/api/v1/classes", RequireAuth(tokens))
	member.GET("", handler.list)
	member.GET("/:id", handler.get)
	member.POST("/:id/bookings", handler.book)

	bookings := e.Group("/api/v1/bookings", RequireAuth(tokens))
	bookings.GET("", handler.myBookings)
	bookings.DELETE("/:id", handler.cancelBooking)

	admin := e.Group("/api/v1/classes", RequireAuth(tokens), RequireRoles(domain.NewRoleSet(domain.RoleTrainer, domain.RoleStaff, domain.RoleManager)))
	admin.POST("", handler.create)
	admin.PUT("/:id", handler.update)
	admin.DELETE("/:id", handler.deactivate)
	admin.GET("/:id/roster", handler.roster)

	staff := e.Group("/api/v1/bookings", RequireAuth(tokens), RequireRoles(domain.NewRoleSet(domain.RoleTrainer, domain.RoleStaff, domain.RoleManager)))
	staff.POST("/:id/attended", handler.markAttended)
}

type classRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	TrainerID   string  `json:"trainer_id"`
	Capacity    int     `json:"capacity"`
	Weekdays    []int64 `json:"weekdays"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
}

func (r classRequest) toInput() (service.ClassInput, error) {
	trainerID, err := uuid.Parse(r.TrainerID)
	if err != nil {
		return service.ClassInput{}, errors.New("trainer_id must be a valid UUID")
	}
	return service.ClassInput{
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		TrainerID:   trainerID,
		Capacity:    r.Capacity,
		Weekdays:    r.Weekdays,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
	}, nil
}

func (h *ClassHandler) create(c echo.Context) error {
	var req classRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	input, err := req.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	}
	class, err := h.classes.Create(c.Request().Context(), input)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(class))
}

func (h *ClassHandler) update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "class id must be a valid UUID"))
	}
	var req classRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	input, err := req.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	}
	class, err := h.classes.Update(c.Request().Context(), id, input)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(class))
}

func (h *ClassHandler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "class id must be a valid UUID"))
	}
	class, err := h.classes.Get(c.Request().Context(), id)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(class))
}

func (h *ClassHandler) list(c echo.Context) error {
	limit, offset := parsePagination(c, 50, 0)
	activeOnly := c.QueryParam("include_inactive") != "true"
	classes, err := h.classes.List(c.Request().Context(), activeOnly, limit, offset)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"classes": classes,
		"meta":    echo.Map{"limit": limit, "offset": offset, "count": len(classes)},
	}))
}

func (h *ClassHandler) deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "class id must be a valid UUID"))
	}
	if err := h.classes.Deactivate(c.Request().Context(), id); err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{"deactivated": true}))
}

func (h *ClassHandler) book(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "class id must be a valid UUID"))
	}
	var req struct {
		Day string `json:"day"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	booking, err := h.classes.Book(c.Request().Context(), classID, claims.UserID, req.Day)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(booking))
}

func (h *ClassHandler) cancelBooking(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "booking id must be a valid UUID"))
	}
	booking, err := h.classes.CancelBooking(c.Request().Context(), bookingID, claims.UserID)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(booking))
}

func (h *ClassHandler) markAttended(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "booking id must be a valid UUID"))
	}
	booking, err := h.classes.MarkAttended(c.Request().Context(), bookingID)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(booking))
}

func (h *ClassHandler) myBookings(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	limit, offset := parsePagination(c, 50, 0)
	bookings, err := h.classes.MyBookings(c.Request().Context(), claims.UserID, limit, offset)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"bookings": bookings,
		"meta":     echo.Map{"limit": limit, "offset": offset, "count": len(bookings)},
	}))
}

func (h *ClassHandler) roster(c echo.Context) error {
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "class id must be a valid UUID"))
	}
	day := c.QueryParam("day")
	roster, err := h.classes.Roster(c.Request().Context(), classID, day)
	if err != nil {
		return h.writeClassError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{"day": day, "bookings": roster}))
}

func (h *ClassHandler) writeClassError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "class not found"))
	case errors.Is(err, service.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "booking not found"))
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "trainer not found"))
	case errors.Is(err, service.ErrClassFull):
		return c.JSON(http.StatusConflict, util.Error("CLASS_FULL", "this class occurrence is fully booked"))
	case errors.Is(err, service.ErrAlreadyBooked):
		return c.JSON(http.StatusConflict, util.Error("ALREADY_BOOKED", "you already hold a booking for this occurrence"))
	case errors.Is(err, service.ErrClassValidation), errors.Is(err, service.ErrClassNotThatDay), errors.Is(err, service.ErrBookingInThePast), errors.Is(err, service.ErrInvalidDay):
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("INTERNAL", "internal error"))
	}
}

func parsePagination(c echo.Context, defaultLimit, defaultOffset int) (int, int) {
	limit := defaultLimit
	offset := defaultOffset
	if v := strings.TrimSpace(c.QueryParam("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := strings.TrimSpace(c.QueryParam("offset")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
