package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) Create(c *gin.Context) {
	var req service.RawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m, err := h.svc.Create(c.Request.Context(), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, m)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, m)
}

func (h *InventoryHandler) List(c *gin.Context) {
	page, size := pagination(c)
	params := repository.RawMaterialListParams{
		Category:   c.Query("category"),
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		Keyword:    c.Query("keyword"),
		Page:       page,
		Size:       size,
	}
	materials, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, materials, total, page, size)
}

func (h *InventoryHandler) Update(c *gin.Context) {
	var req service.RawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, m)
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m, err := h.svc.AdjustStock(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, m)
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	alerts, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	success(c, alerts)
}

// Movements GET /stock-movements
func (h *InventoryHandler) Movements(c *gin.Context) {
	page, size := pagination(c)
	params := repository.StockMovementListParams{
		ItemType:      c.Query("item_type"),
		ItemID:        c.Query("item_id"),
		MovementType:  c.Query("movement_type"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Page:          page,
		Size:          size,
	}
	moves, total, err := h.svc.ListMovements(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, moves, total, page, size)
}
