package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/util"
)

type ReportHandler struct {
	reports *service.ReportService
}

func RegisterReports(e *echo.Echo, tokens *service.TokenManager, reports *service.ReportService) {
	handler := &ReportHandler{reports: reports}

	group := e.Group("/api/v1/reports", RequireAuth(tokens), RequireRoles(domain.NewRoleSet(domain.RoleManager)))
	group.GET("/dashboard", handler.dashboard)
}

func (h *ReportHandler) dashboard(c echo.Context) error {
	report, err := h.reports.Dashboard(c.Request().Context(), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDay) {
			return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, util.Error("INTERNAL", "internal error"))
	}
	return c.JSON(http.StatusOK, util.Data(report))
}
