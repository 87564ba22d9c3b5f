package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/report"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type DashboardService struct {
	repos  *repository.Repositories
	cache  cache.Store
	logger *zap.Logger
	ttl    time.Duration
}

func NewDashboardService(repos *repository.Repositories, opts Options) *DashboardService {
	return &DashboardService{repos: repos, cache: opts.Cache, logger: opts.Logger, ttl: opts.DashboardTTL}
}

// DashboardSummary headline figures of the factory
type DashboardSummary struct {
	Products            map[string]int64 `json:"products"`
	RawMaterials        int64            `json:"raw_materials"`
	LowStockMaterials   int              `json:"low_stock_materials"`
	LowStockProducts    int              `json:"low_stock_products"`
	Batches             map[string]int64 `json:"batches"`
	Orders              map[string]int64 `json:"orders"`
	Revenue             float64          `json:"revenue"`
	OpenPurchaseOrders  int64            `json:"open_purchase_orders"`
	UnreadNotifications int64            `json:"unread_notifications"`
	GeneratedAt         time.Time        `json:"generated_at"`
}

// Summary returns the cached summary, rebuilding it when the cache is
// empty or unreachable.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var cached DashboardSummary
	err := cache.GetJSON(ctx, s.cache, dashboardCacheKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	summary, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, dashboardCacheKey, summary, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context) (*DashboardSummary, error) {
	sum := &DashboardSummary{GeneratedAt: time.Now()}
	var err error
	if sum.Products, err = s.repos.Product.CountByStatus(ctx); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if sum.RawMaterials, err = s.repos.RawMaterial.Count(ctx); err != nil {
		return nil, fmt.Errorf("count raw materials: %w", err)
	}
	lowMaterials, err := s.repos.RawMaterial.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock materials: %w", err)
	}
	sum.LowStockMaterials = len(lowMaterials)
	lowProducts, err := s.repos.Product.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	sum.LowStockProducts = len(lowProducts)
	if sum.Batches, err = s.repos.Production.CountBatchesByStatus(ctx); err != nil {
		return nil, fmt.Errorf("count batches: %w", err)
	}
	if sum.Orders, err = s.repos.Order.CountByStatus(ctx); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if sum.Revenue, err = s.repos.Order.SumRevenue(ctx); err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	for _, status := range []string{entity.POStatusOrdered, entity.POStatusApproved, entity.POStatusShipped} {
		n, err := s.repos.Purchase.CountByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("count purchase orders: %w", err)
		}
		sum.OpenPurchaseOrders += n
	}
	if sum.UnreadNotifications, err = s.repos.Notification.CountUnread(ctx); err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	return sum, nil
}

type ReportService struct {
	repos *repository.Repositories
}

func NewReportService(repos *repository.Repositories) *ReportService {
	return &ReportService{repos: repos}
}

// Inventory renders the stock spreadsheet and its download name.
func (s *ReportService) Inventory(ctx context.Context) (*excelize.File, string, error) {
	materials, err := s.repos.RawMaterial.ListAll(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list raw materials: %w", err)
	}
	products, err := s.repos.Product.ListAll(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list products: %w", err)
	}
	now := time.Now()
	f, err := report.InventoryWorkbook(materials, products, now)
	if err != nil {
		return nil, "", fmt.Errorf("render inventory report: %w", err)
	}
	return f, report.InventoryFilename(now), nil
}
