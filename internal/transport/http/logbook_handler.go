package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/util"
)

type LogbookHandler struct {
	logbook *service.LogbookService
}

func RegisterLogbook(e *echo.Echo, tokens *service.TokenManager, logbook *service.LogbookService) {
	handler := &LogbookHandler{logbook: logbook}

	group := e.Group("/api/v1/logbook", RequireAuth(tokens))
	group.POST("/workouts", handler.logWorkout)
	group.GET("/workouts", handler.listWorkouts)
	group.POST("/nutrition", handler.logNutrition)
	group.GET("/nutrition", handler.listNutrition)
	group.POST("/progress", handler.logProgress)
	group.GET("/progress", handler.listProgress)
}

func (h *LogbookHandler) logWorkout(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	var log domain.WorkoutLog
	if err := c.Bind(&log); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	created, err := h.logbook.LogWorkout(c.Request().Context(), claims.UserID, &log)
	if err != nil {
		return h.writeLogbookError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(created))
}

func (h *LogbookHandler) listWorkouts(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	limit, offset := parsePagination(c, 50, 0)
	logs, err := h.logbook.Workouts(c.Request().Context(), claims.UserID, c.QueryParam("from"), c.QueryParam("to"), limit, offset)
	if err != nil {
		return h.writeLogbookError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"workouts": logs,
		"meta":     echo.Map{"limit": limit, "offset": offset, "count": len(logs)},
	}))
}

func (h *LogbookHandler) logNutrition(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	var log domain.NutritionLog
	if err := c.Bind(&log); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	created, err := h.logbook.LogNutrition(c.Request().Context(), claims.UserID, &log)
	if err != nil {
		return h.writeLogbookError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(created))
}

func (h *LogbookHandler) listNutrition(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	limit, offset := parsePagination(c, 50, 0)
	logs, err := h.logbook.Nutrition(c.Request().Context(), claims.UserID, c.QueryParam("from"), c.QueryParam("to"), limit, offset)
	if err != nil {
		return h.writeLogbookError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"nutrition": logs,
		"meta":      echo.Map{"limit": limit, "offset": offset, "count": len(logs)},
	}))
}

// logProgress accepts multipart form data so an optional photo can ride along
// with the measurements.
func (h *LogbookHandler) logProgress(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}

	entry := domain.ProgressEntry{Day: strings.TrimSpace(c.FormValue("day"))}
	if v := strings.TrimSpace(c.FormValue("weight_kg")); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "weight_kg must be a number"))
		}
		entry.WeightKG = &parsed
	}
	if v := strings.TrimSpace(c.FormValue("body_fat_pct")); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "body_fat_pct must be a number"))
		}
		entry.BodyFat = &parsed
	}
	if v := strings.TrimSpace(c.FormValue("notes")); v != "" {
		entry.Notes = &v
	}

	var photo *service.ProgressPhoto
	if fileHeader, err := c.FormFile("photo"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "unable to read photo upload"))
		}
		defer src.Close()
		photo = &service.ProgressPhoto{
			Reader:      src,
			Size:        fileHeader.Size,
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
		}
	}

	created, err := h.logbook.LogProgress(c.Request().Context(), claims.UserID, &entry, photo)
	if err != nil {
		return h.writeLogbookError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(created))
}

func (h *LogbookHandler) listProgress(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	limit, offset := parsePagination(c, 50, 0)
	entries, err := h.logbook.Progress(c.Request().Context(), claims.UserID, limit, offset)
	if err != nil {
		return h.writeLogbookError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"entries": entries,
		"meta":    echo.Map{"limit": limit, "offset": offset, "count": len(entries)},
	}))
}

func (h *LogbookHandler) writeLogbookError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrLogValidation):
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	case errors.Is(err, service.ErrPhotoTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error("PHOTO_TOO_LARGE", "photo exceeds the size limit"))
	case errors.Is(err, service.ErrPhotoUnsupported):
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "photo format is not supported"))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("INTERNAL", "internal error"))
	}
}
