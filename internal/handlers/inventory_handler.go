package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-system/schoolfees/internal/middleware"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/school-system/schoolfees/internal/services"
	"github.com/shopspring/decimal"
)

// InventoryHandler manages the stock items sold with admission.
type InventoryHandler struct {
	repo  repository.Repository
	audit *services.AuditService
}

func NewInventoryHandler(repo repository.Repository, audit *services.AuditService) *InventoryHandler {
	return &InventoryHandler{repo: repo, audit: audit}
}

type InventoryRequest struct {
	Name         string          `json:"name" binding:"required"`
	SellingPrice decimal.Decimal `json:"selling_price" swaggertype:"number"`
	Quantity     int             `json:"quantity" binding:"min=0"`
}

func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.repo.ListInventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryHandler) Create(c *gin.Context) {
	var req InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.SellingPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "selling_price must not be negative"})
		return
	}
	item := &models.InventoryItem{Name: req.Name, SellingPrice: req.SellingPrice, Quantity: req.Quantity}
	if err := h.repo.CreateInventoryItem(c.Request.Context(), item); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), middleware.Actor(c), "create", "inventory_item", item.ID.String(), nil, item)
	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.SellingPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "selling_price must not be negative"})
		return
	}
	item := &models.InventoryItem{Name: req.Name, SellingPrice: req.SellingPrice, Quantity: req.Quantity}
	item.ID = id
	if err := h.repo.UpdateInventoryItem(c.Request.Context(), item); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), middleware.Actor(c), "update", "inventory_item", id.String(), nil, item)
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteInventoryItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), middleware.Actor(c), "delete", "inventory_item", id.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}
