package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/util"
)

type AttendanceHandler struct {
	attendance *service.AttendanceService
}

func RegisterAttendance(e *echo.Echo, tokens *service.TokenManager, attendance *service.AttendanceService) {
	handler := &AttendanceHandler{attendance: attendance}

	group := e.Group("/api/v1/attendance", RequireAuth(tokens))
	group.POST("/qr", handler.generateQR)
	group.POST("/check-out", handler.checkOut)
	group.GET("/status", handler.status)
	group.GET("/me", handler.myHistory)

	// The scanner endpoint carries its own credential (the QR token), so the
	// front-desk device does not need a member's session.
	e.POST("/api/v1/attendance/check-in", handler.checkIn)

	desk := e.Group("/api/v1/attendance", RequireAuth(tokens), RequireRoles(domain.NewRoleSet(domain.RoleStaff, domain.RoleManager)))
	desk.POST("/force-check-in", handler.forceCheckIn)
	desk.POST("/manual-entry", handler.manualEntry)
	// The desk closes and inspects other members' records; manual entries in
	// particular have no session on the member side to check out with.
	desk.PUT("/check-out/:id", handler.deskCheckOut)
	desk.GET("/status/:id", handler.userStatus)
	desk.GET("/current", handler.currentlyCheckedIn)
	desk.GET("/today", handler.today)
	desk.GET("/stats", handler.stats)
	desk.GET("/users/:id", handler.userHistory)
}

// generateQR returns the freshly minted check-in token both raw and as a
// base64 PNG for clients that render the code themselves.
func (h *AttendanceHandler) generateQR(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	qr, err := h.attendance.GenerateCheckInQR(c.Request().Context(), claims.UserID, claims.Role)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"token":      qr.Token,
		"png_base64": base64.StdEncoding.EncodeToString(qr.PNG),
		"expires_at": qr.ExpiresAt,
	}))
}

func (h *AttendanceHandler) checkIn(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "token is required"))
	}
	record, err := h.attendance.CheckIn(c.Request().Context(), req.Token)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(record))
}

func (h *AttendanceHandler) checkOut(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	record, err := h.attendance.CheckOut(c.Request().Context(), claims.UserID)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(record))
}

func (h *AttendanceHandler) forceCheckIn(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "user_id must be a valid UUID"))
	}
	record, err := h.attendance.ForceCheckIn(c.Request().Context(), userID, claims.UserID, claims.Role)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(record))
}

func (h *AttendanceHandler) manualEntry(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "user_id must be a valid UUID"))
	}
	record, err := h.attendance.ManualEntry(c.Request().Context(), userID, claims.UserID, claims.Role)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(record))
}

func (h *AttendanceHandler) deskCheckOut(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "user id must be a valid UUID"))
	}
	record, err := h.attendance.CheckOut(c.Request().Context(), userID)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(record))
}

func (h *AttendanceHandler) userStatus(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "user id must be a valid UUID"))
	}
	status, err := h.attendance.Status(c.Request().Context(), userID)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(status))
}

func (h *AttendanceHandler) status(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	status, err := h.attendance.Status(c.Request().Context(), claims.UserID)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(status))
}

func (h *AttendanceHandler) currentlyCheckedIn(c echo.Context) error {
	records, err := h.attendance.CurrentlyCheckedIn(c.Request().Context())
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(records))
}

func (h *AttendanceHandler) today(c echo.Context) error {
	records, err := h.attendance.TodayAttendance(c.Request().Context())
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(records))
}

func (h *AttendanceHandler) stats(c echo.Context) error {
	stats, err := h.attendance.Stats(c.Request().Context(), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(stats))
}

func (h *AttendanceHandler) myHistory(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	return h.history(c, claims.UserID)
}

func (h *AttendanceHandler) userHistory(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "user id must be a valid UUID"))
	}
	return h.history(c, userID)
}

func (h *AttendanceHandler) history(c echo.Context, userID uuid.UUID) error {
	limit, offset := parsePagination(c, 50, 0)
	records, err := h.attendance.UserHistory(c.Request().Context(), userID, c.QueryParam("from"), c.QueryParam("to"), limit, offset)
	if err != nil {
		return h.writeAttendanceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"records": records,
		"meta":    echo.Map{"limit": limit, "offset": offset, "count": len(records)},
	}))
}

func (h *AttendanceHandler) writeAttendanceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return c.JSON(http.StatusConflict, util.Error("ALREADY_CHECKED_IN", "an open attendance record already exists"))
	case errors.Is(err, service.ErrNotCheckedIn):
		return c.JSON(http.StatusConflict, util.Error("NOT_CHECKED_IN", "no open attendance record to close"))
	case errors.Is(err, service.ErrReplayedQR):
		return c.JSON(http.StatusConflict, util.Error("REPLAYED_QR", "this code has already been used"))
	case errors.Is(err, service.ErrExpiredQR):
		return c.JSON(http.StatusUnauthorized, util.Error("EXPIRED_QR", "this code has expired"))
	case errors.Is(err, service.ErrInvalidQR):
		return c.JSON(http.StatusUnauthorized, util.Error("INVALID_QR", "this code is not valid"))
	case errors.Is(err, service.ErrForceNotAllowed):
		return c.JSON(http.StatusForbidden, util.Error("FORBIDDEN", "role may not record attendance for others"))
	case errors.Is(err, service.ErrInvalidDay):
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("INTERNAL", "internal error"))
	}
}
