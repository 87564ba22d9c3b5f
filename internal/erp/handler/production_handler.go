package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

type ProductionHandler struct {
	svc *service.ProductionService
}

func NewProductionHandler(svc *service.ProductionService) *ProductionHandler {
	return &ProductionHandler{svc: svc}
}

func (h *ProductionHandler) CreateBatch(c *gin.Context) {
	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	batch, err := h.svc.CreateBatch(c.Request.Context(), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, batch)
}

func (h *ProductionHandler) GetBatch(c *gin.Context) {
	batch, err := h.svc.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, batch)
}

func (h *ProductionHandler) ListBatches(c *gin.Context) {
	page, size := pagination(c)
	params := repository.BatchListParams{
		Status:    c.Query("status"),
		ProductID: c.Query("product_id"),
		Priority:  c.Query("priority"),
		Keyword:   c.Query("keyword"),
		Page:      page,
		Size:      size,
	}
	batches, total, err := h.svc.ListBatches(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, batches, total, page, size)
}

// Start POST /production/start
func (h *ProductionHandler) Start(c *gin.Context) {
	var req service.StartProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	batch, err := h.svc.StartProduction(c.Request.Context(), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, batch)
}

func (h *ProductionHandler) Cancel(c *gin.Context) {
	var req service.CancelBatchRequest
	if err := bindOptional(c, &req); err != nil {
		bindError(c, err)
		return
	}
	batch, err := h.svc.CancelBatch(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, batch)
}

func (h *ProductionHandler) Consumptions(c *gin.Context) {
	rows, err := h.svc.ListConsumptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, rows)
}

func (h *ProductionHandler) Flow(c *gin.Context) {
	flow, err := h.svc.GetFlow(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, flow)
}

// --- Machine stage ---

func (h *ProductionHandler) AddMachineStep(c *gin.Context) {
	var req service.AddMachineStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	step, err := h.svc.AddMachineStep(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, step)
}

func (h *ProductionHandler) CompleteStep(c *gin.Context) {
	var req service.CompleteStepRequest
	if err := bindOptional(c, &req); err != nil {
		bindError(c, err)
		return
	}
	step, err := h.svc.CompleteStep(c.Request.Context(), c.Param("id"), c.Param("step_id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, step)
}

// --- Wastage stage ---

func (h *ProductionHandler) CompleteWaste(c *gin.Context) {
	var req service.CompleteWasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.svc.CompleteWaste(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, result)
}

func (h *ProductionHandler) SkipWaste(c *gin.Context) {
	var req service.SkipStageRequest
	if err := bindOptional(c, &req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.svc.SkipWaste(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, result)
}

func (h *ProductionHandler) ListWaste(c *gin.Context) {
	page, size := pagination(c)
	params := repository.WasteListParams{
		BatchID:   c.Query("batch_id"),
		WasteType: c.Query("waste_type"),
		Status:    c.Query("status"),
		Page:      page,
		Size:      size,
	}
	records, total, err := h.svc.ListWaste(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, records, total, page, size)
}

// --- Individual product stage ---

func (h *ProductionHandler) Complete(c *gin.Context) {
	var req service.CompleteProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	summary, err := h.svc.CompleteProduction(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, summary)
}

func (h *ProductionHandler) SkipCompletion(c *gin.Context) {
	var req service.SkipStageRequest
	if err := bindOptional(c, &req); err != nil {
		bindError(c, err)
		return
	}
	summary, err := h.svc.SkipCompletion(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, summary)
}
