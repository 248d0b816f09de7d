package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gympoint/gympoint-backend/internal/domain"
	"github.com/gympoint/gympoint-backend/internal/service"
	"github.com/gympoint/gympoint-backend/internal/util"
)

const webhookSignatureHeader = "X-Gateway-Signature"

type MembershipHandler struct {
	memberships *service.MembershipService
}

func RegisterMemberships(e *echo.Echo, tokens *service.TokenManager, memberships *service.MembershipService) {
	handler := &MembershipHandler{memberships: memberships}

	member := e.Group("/api/v1/memberships", RequireAuth(tokens))
	member.GET("/plans", handler.listPlans)
	member.POST("/purchase", handler.purchase)
	member.GET("/me", handler.myMemberships)
	member.GET("/me/active", handler.activeMembership)
	member.GET("/me/payments", handler.myPayments)

	admin := e.Group("/api/v1/memberships/plans", RequireAuth(tokens), RequireRoles(domain.NewRoleSet(domain.RoleManager)))
	admin.POST("", handler.createPlan)
	admin.PUT("/:id", handler.updatePlan)
	admin.DELETE("/:id", handler.deletePlan)

	// Unauthenticated by design: the gateway signs the payload instead.
	e.POST("/api/v1/payments/webhook", handler.webhook)
}

func (h *MembershipHandler) createPlan(c echo.Context) error {
	var plan domain.MembershipPlan
	if err := c.Bind(&plan); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	created, err := h.memberships.CreatePlan(c.Request().Context(), &plan)
	if err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(created))
}

func (h *MembershipHandler) updatePlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "plan id must be a valid UUID"))
	}
	var plan domain.MembershipPlan
	if err := c.Bind(&plan); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	plan.ID = id
	updated, err := h.memberships.UpdatePlan(c.Request().Context(), &plan)
	if err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(updated))
}

func (h *MembershipHandler) deletePlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "plan id must be a valid UUID"))
	}
	if err := h.memberships.DeletePlan(c.Request().Context(), id); err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{"deleted": true}))
}

func (h *MembershipHandler) listPlans(c echo.Context) error {
	plans, err := h.memberships.ListPlans(c.Request().Context())
	if err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(plans))
}

func (h *MembershipHandler) purchase(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "plan_id must be a valid UUID"))
	}
	result, err := h.memberships.Purchase(c.Request().Context(), claims.UserID, planID)
	if err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(result))
}

// webhook receives gateway callbacks. The raw body must be read before any
// binding so the HMAC covers exactly the bytes the gateway signed.
func (h *MembershipHandler) webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "unable to read payload"))
	}
	signature := c.Request().Header.Get(webhookSignatureHeader)

	payment, err := h.memberships.HandleWebhook(c.Request().Context(), payload, signature)
	if err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(payment))
}

func (h *MembershipHandler) myMemberships(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	memberships, err := h.memberships.MyMemberships(c.Request().Context(), claims.UserID)
	if err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(memberships))
}

func (h *MembershipHandler) activeMembership(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	membership, err := h.memberships.ActiveMembership(c.Request().Context(), claims.UserID)
	if err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(membership))
}

func (h *MembershipHandler) myPayments(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("TOKEN_MISSING", "authentication required"))
	}
	limit, offset := parsePagination(c, 50, 0)
	payments, err := h.memberships.MyPayments(c.Request().Context(), claims.UserID, limit, offset)
	if err != nil {
		return h.writeMembershipError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"payments": payments,
		"meta":     echo.Map{"limit": limit, "offset": offset, "count": len(payments)},
	}))
}

func (h *MembershipHandler) writeMembershipError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "membership plan not found"))
	case errors.Is(err, service.ErrMembershipNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "membership not found"))
	case errors.Is(err, service.ErrPaymentNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "payment not found"))
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "user not found"))
	case errors.Is(err, service.ErrPlanValidation), errors.Is(err, service.ErrWebhookPayload):
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	case errors.Is(err, service.ErrWebhookSignature):
		return c.JSON(http.StatusUnauthorized, util.Error("WEBHOOK_SIGNATURE", "webhook signature verification failed"))
	case errors.Is(err, service.ErrPaymentAlreadyDone):
		return c.JSON(http.StatusConflict, util.Error("PAYMENT_SETTLED", "payment was already settled"))
	case errors.Is(err, service.ErrGatewayNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, util.Error("GATEWAY_UNAVAILABLE", "payment gateway is not configured"))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("INTERNAL", "internal error"))
	}
}
