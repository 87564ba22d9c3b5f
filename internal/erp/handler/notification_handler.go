package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	page, size := pagination(c)
	params := repository.NotificationListParams{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Module: c.Query("module"),
		Page:   page,
		Size:   size,
	}
	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, items, total, page, size)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"count": n})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

// MarkAllRead PUT /notifications/read-all?module=production
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), c.Query("module"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"updated": n})
}

func (h *NotificationHandler) Dismiss(c *gin.Context) {
	if err := h.svc.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}
