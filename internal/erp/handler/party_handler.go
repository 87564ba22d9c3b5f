package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	svc *service.SupplierService
}

func NewSupplierHandler(svc *service.SupplierService) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

func (h *SupplierHandler) Create(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	supplier, err := h.svc.Create(c.Request.Context(), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, supplier)
}

func (h *SupplierHandler) Get(c *gin.Context) {
	supplier, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, supplier)
}

func (h *SupplierHandler) List(c *gin.Context) {
	page, size := pagination(c)
	params := repository.SupplierListParams{
		Status:  c.Query("status"),
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    size,
	}
	suppliers, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, suppliers, total, page, size)
}

func (h *SupplierHandler) Update(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	supplier, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, supplier)
}

func (h *SupplierHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

type CustomerHandler struct {
	svc *service.CustomerService
}

func NewCustomerHandler(svc *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	customer, err := h.svc.Create(c.Request.Context(), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, customer)
}

func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, customer)
}

func (h *CustomerHandler) List(c *gin.Context) {
	page, size := pagination(c)
	params := repository.CustomerListParams{
		CustomerType: c.Query("customer_type"),
		Status:       c.Query("status"),
		Keyword:      c.Query("keyword"),
		Page:         page,
		Size:         size,
	}
	customers, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, customers, total, page, size)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	customer, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, customer)
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}
