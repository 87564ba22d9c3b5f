package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	svc    *service.DashboardService
	report *service.ReportService
	logger *zap.Logger
}

func NewDashboardHandler(svc *service.DashboardService, report *service.ReportService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, report: report, logger: logger}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	success(c, summary)
}

// InventoryReport GET /reports/inventory downloads the stock workbook.
func (h *DashboardHandler) InventoryReport(c *gin.Context) {
	f, filename, err := h.report.Inventory(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write inventory report", zap.Error(err))
	}
}
