package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// MasterDataHandler machines and dropdown options
type MasterDataHandler struct {
	svc *service.MasterDataService
}

func NewMasterDataHandler(svc *service.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{svc: svc}
}

func (h *MasterDataHandler) CreateMachine(c *gin.Context) {
	var req service.MachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	machine, err := h.svc.CreateMachine(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, machine)
}

func (h *MasterDataHandler) GetMachine(c *gin.Context) {
	machine, err := h.svc.GetMachine(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, machine)
}

func (h *MasterDataHandler) UpdateMachine(c *gin.Context) {
	var req service.MachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	machine, err := h.svc.UpdateMachine(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, machine)
}

func (h *MasterDataHandler) ListMachines(c *gin.Context) {
	machines, err := h.svc.ListMachines(c.Request.Context(), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, machines)
}

func (h *MasterDataHandler) CreateDropdown(c *gin.Context) {
	var req service.DropdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	option, err := h.svc.CreateDropdown(c.Request.Context(), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, option)
}

func (h *MasterDataHandler) UpdateDropdown(c *gin.Context) {
	var req service.DropdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	option, err := h.svc.UpdateDropdown(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, option)
}

func (h *MasterDataHandler) DeleteDropdown(c *gin.Context) {
	if err := h.svc.DeleteDropdown(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

// ListDropdowns GET /dropdowns?category=color&active=true
func (h *MasterDataHandler) ListDropdowns(c *gin.Context) {
	options, err := h.svc.ListDropdowns(c.Request.Context(), c.Query("category"), c.Query("active") == "true")
	if err != nil {
		fail(c, err)
		return
	}
	success(c, options)
}
