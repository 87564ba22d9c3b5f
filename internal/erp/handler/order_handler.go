package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.svc.Create(c.Request.Context(), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	page, size := pagination(c)
	params := repository.OrderListParams{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		Keyword:    c.Query("keyword"),
		Page:       page,
		Size:       size,
	}
	orders, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, orders, total, page, size)
}

// UpdateStatus PUT /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, order)
}

// SelectUnits PUT /orders/:id/items/:item_id/units
func (h *OrderHandler) SelectUnits(c *gin.Context) {
	var req service.SelectUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	item, err := h.svc.SelectIndividualProducts(c.Request.Context(), c.Param("id"), c.Param("item_id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, item)
}

func (h *OrderHandler) RecordPayment(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.svc.RecordPayment(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, order)
}
