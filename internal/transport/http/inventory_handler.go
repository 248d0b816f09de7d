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

type InventoryHandler struct {
	inventory *service.InventoryService
}

// RegisterInventory wires the stock and supplier endpoints. Everything here is
// back office, so the whole group is staff/manager only.
func RegisterInventory(e *echo.Echo, tokens *service.TokenManager, inventory *service.InventoryService) {
	handler := &InventoryHandler{inventory: inventory}

	group := e.Group("/api/v1/inventory", RequireAuth(tokens), RequireRoles(domain.NewRoleSet(domain.RoleStaff, domain.RoleManager)))
	group.POST("/items", handler.createItem)
	group.PUT("/items/:id", handler.updateItem)
	group.GET("/items", handler.listItems)
	group.GET("/items/:id", handler.getItem)
	group.POST("/items/:id/adjust", handler.adjustStock)
	group.GET("/items/low-stock", handler.lowStock)
	group.DELETE("/items/:id", handler.deleteItem)

	group.POST("/suppliers", handler.createSupplier)
	group.PUT("/suppliers/:id", handler.updateSupplier)
	group.GET("/suppliers", handler.listSuppliers)
	group.DELETE("/suppliers/:id", handler.deleteSupplier)
}

func (h *InventoryHandler) createItem(c echo.Context) error {
	var item domain.InventoryItem
	if err := c.Bind(&item); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	created, err := h.inventory.CreateItem(c.Request().Context(), &item)
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(created))
}

func (h *InventoryHandler) updateItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "item id must be a valid UUID"))
	}
	var item domain.InventoryItem
	if err := c.Bind(&item); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	item.ID = id
	updated, err := h.inventory.UpdateItem(c.Request().Context(), &item)
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(updated))
}

func (h *InventoryHandler) getItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "item id must be a valid UUID"))
	}
	item, err := h.inventory.GetItem(c.Request().Context(), id)
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(item))
}

func (h *InventoryHandler) listItems(c echo.Context) error {
	limit, offset := parsePagination(c, 50, 0)
	var category *string
	if v := strings.TrimSpace(c.QueryParam("category")); v != "" {
		category = &v
	}
	items, err := h.inventory.ListItems(c.Request().Context(), category, limit, offset)
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"items": items,
		"meta":  echo.Map{"limit": limit, "offset": offset, "count": len(items)},
	}))
}

func (h *InventoryHandler) adjustStock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "item id must be a valid UUID"))
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	if req.Delta == 0 {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "delta must be non-zero"))
	}
	item, err := h.inventory.AdjustStock(c.Request().Context(), id, req.Delta)
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(item))
}

func (h *InventoryHandler) lowStock(c echo.Context) error {
	items, err := h.inventory.LowStockItems(c.Request().Context())
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(items))
}

func (h *InventoryHandler) deleteItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "item id must be a valid UUID"))
	}
	if err := h.inventory.DeleteItem(c.Request().Context(), id); err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{"deleted": true}))
}

func (h *InventoryHandler) createSupplier(c echo.Context) error {
	var supplier domain.Supplier
	if err := c.Bind(&supplier); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	created, err := h.inventory.CreateSupplier(c.Request().Context(), &supplier)
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data(created))
}

func (h *InventoryHandler) updateSupplier(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "supplier id must be a valid UUID"))
	}
	var supplier domain.Supplier
	if err := c.Bind(&supplier); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "invalid request body"))
	}
	supplier.ID = id
	updated, err := h.inventory.UpdateSupplier(c.Request().Context(), &supplier)
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(updated))
}

func (h *InventoryHandler) listSuppliers(c echo.Context) error {
	limit, offset := parsePagination(c, 50, 0)
	suppliers, err := h.inventory.ListSuppliers(c.Request().Context(), limit, offset)
	if err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{
		"suppliers": suppliers,
		"meta":      echo.Map{"limit": limit, "offset": offset, "count": len(suppliers)},
	}))
}

func (h *InventoryHandler) deleteSupplier(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", "supplier id must be a valid UUID"))
	}
	if err := h.inventory.DeleteSupplier(c.Request().Context(), id); err != nil {
		return h.writeInventoryError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data(echo.Map{"deleted": true}))
}

func (h *InventoryHandler) writeInventoryError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "inventory item not found"))
	case errors.Is(err, service.ErrSupplierNotFound):
		return c.JSON(http.StatusNotFound, util.Error("NOT_FOUND", "supplier not found"))
	case errors.Is(err, service.ErrStockUnderflow):
		return c.JSON(http.StatusConflict, util.Error("INSUFFICIENT_STOCK", "stock cannot go below zero"))
	case errors.Is(err, service.ErrItemValidation), errors.Is(err, service.ErrSupplierValidation):
		return c.JSON(http.StatusBadRequest, util.Error("VALIDATION", err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("INTERNAL", "internal error"))
	}
}
