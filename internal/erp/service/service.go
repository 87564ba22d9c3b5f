package service

import (
	"context"
	"io"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Publisher pushes an event to connected clients, or to one user's clients.
type Publisher interface {
	Publish(eventType string, payload interface{})
	PublishToUser(userID, eventType string, payload interface{})
}

// ImageStore persists uploaded files and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

func (noopPublisher) PublishToUser(string, string, interface{}) {}

// Options are the collaborators shared by the ERP services. Zero values
// fall back to no-op or in-memory implementations.
type Options struct {
	Logger       *zap.Logger
	Cache        cache.Store
	Events       Publisher
	Images       ImageStore
	Metrics      *metrics.Metrics
	DraftTTL     time.Duration
	DashboardTTL time.Duration
	AlertWindow  time.Duration // one unread low-stock alert per item inside this window
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Cache == nil {
		o.Cache = cache.NewMemoryStore()
	}
	if o.Events == nil {
		o.Events = noopPublisher{}
	}
	if o.DraftTTL <= 0 {
		o.DraftTTL = 7 * 24 * time.Hour
	}
	if o.DashboardTTL <= 0 {
		o.DashboardTTL = 30 * time.Second
	}
	if o.AlertWindow <= 0 {
		o.AlertWindow = 24 * time.Hour
	}
}

// Services ERP service set
type Services struct {
	Product      *ProductService
	Recipe       *RecipeService
	Inventory    *InventoryService
	Supplier     *SupplierService
	Customer     *CustomerService
	MasterData   *MasterDataService
	Procurement  *ProcurementService
	Planning     *PlanningService
	Production   *ProductionService
	Order        *OrderService
	Notification *NotificationService
	Dashboard    *DashboardService
	Report       *ReportService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, opts Options) *Services {
	opts.defaults()

	notification := NewNotificationService(repos, opts)
	recipe := NewRecipeService(repos, db, opts)
	planning := NewPlanningService(repos, db, recipe, notification, opts)

	return &Services{
		Product:      NewProductService(repos, db, opts),
		Recipe:       recipe,
		Inventory:    NewInventoryService(repos, db, notification, opts),
		Supplier:     NewSupplierService(repos.Supplier),
		Customer:     NewCustomerService(repos.Customer),
		MasterData:   NewMasterDataService(repos.Machine, repos.Dropdown),
		Procurement:  NewProcurementService(repos, db, notification, opts),
		Planning:     planning,
		Production:   NewProductionService(repos, db, planning, notification, opts),
		Order:        NewOrderService(repos, db, notification, opts),
		Notification: notification,
		Dashboard:    NewDashboardService(repos, opts),
		Report:       NewReportService(repos),
	}
}
