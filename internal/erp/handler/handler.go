package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers ERP HTTP handlers
type Handlers struct {
	Product      *ProductHandler
	Inventory    *InventoryHandler
	Supplier     *SupplierHandler
	Customer     *CustomerHandler
	MasterData   *MasterDataHandler
	Procurement  *ProcurementHandler
	Planning     *PlanningHandler
	Production   *ProductionHandler
	Order        *OrderHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
}

func NewHandlers(services *service.Services, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Product:      NewProductHandler(services.Product, services.Recipe),
		Inventory:    NewInventoryHandler(services.Inventory),
		Supplier:     NewSupplierHandler(services.Supplier),
		Customer:     NewCustomerHandler(services.Customer),
		MasterData:   NewMasterDataHandler(services.MasterData),
		Procurement:  NewProcurementHandler(services.Procurement),
		Planning:     NewPlanningHandler(services.Planning),
		Production:   NewProductionHandler(services.Production),
		Order:        NewOrderHandler(services.Order),
		Notification: NewNotificationHandler(services.Notification),
		Dashboard:    NewDashboardHandler(services.Dashboard, services.Report, logger),
	}
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

func list(c *gin.Context, items interface{}, total int64, page, size int) {
	success(c, gin.H{"items": items, "total": total, "page": page, "size": size})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
}

// fail maps a service error onto the response code table.
func fail(c *gin.Context, err error) {
	var validation *service.ValidationError
	var gate *service.GateError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 10003, "message": validation.Message, "details": validation.Details})
	case errors.As(err, &gate):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": gate.Error(), "details": gate.Issues})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
	case errors.Is(err, service.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"code": 10005, "message": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

// bindOptional binds a JSON body that may be omitted entirely.
func bindOptional(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func currentUser(c *gin.Context) string {
	return c.GetString("user_id")
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 20
	}
	return page, size
}
