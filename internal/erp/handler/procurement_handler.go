package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

type ProcurementHandler struct {
	svc *service.ProcurementService
}

func NewProcurementHandler(svc *service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{svc: svc}
}

func (h *ProcurementHandler) CreatePO(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	po, err := h.svc.CreatePO(c.Request.Context(), req, c.GetHeader("Idempotency-Key"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, po)
}

func (h *ProcurementHandler) GetPO(c *gin.Context) {
	po, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, po)
}

func (h *ProcurementHandler) ListPOs(c *gin.Context) {
	page, size := pagination(c)
	params := repository.POListParams{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		MaterialID: c.Query("material_id"),
		Keyword:    c.Query("keyword"),
		Page:       page,
		Size:       size,
	}
	pos, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, pos, total, page, size)
}

func (h *ProcurementHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdatePOStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	po, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, po)
}
