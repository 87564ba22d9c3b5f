package handler

import (
	"net/http"
	"strconv"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// PlanningHandler requirement calculation and per-product planning drafts
type PlanningHandler struct {
	svc *service.PlanningService
}

func NewPlanningHandler(svc *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{svc: svc}
}

// Requirements GET /planning/:product_id/requirements?quantity=10
func (h *PlanningHandler) Requirements(c *gin.Context) {
	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil || quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "quantity must be a non-negative integer"})
		return
	}
	plan, err := h.svc.CalculateRequirements(c.Request.Context(), c.Param("product_id"), quantity, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, plan)
}

func (h *PlanningHandler) GetDraft(c *gin.Context) {
	draft, err := h.svc.GetDraft(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, draft)
}

func (h *PlanningHandler) SaveDraft(c *gin.Context) {
	var req service.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	draft, err := h.svc.SaveDraft(c.Request.Context(), c.Param("product_id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, draft)
}

func (h *PlanningHandler) DeleteDraft(c *gin.Context) {
	if err := h.svc.DeleteDraft(c.Request.Context(), c.Param("product_id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

func (h *PlanningHandler) AddMaterials(c *gin.Context) {
	var req service.AddMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	draft, err := h.svc.AddMaterialsToProduction(c.Request.Context(), c.Param("product_id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, draft)
}
