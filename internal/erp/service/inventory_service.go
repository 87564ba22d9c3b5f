package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/sse"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService raw materials, manual stock adjustments and the ledger
type InventoryService struct {
	repos  *repository.Repositories
	db     *gorm.DB
	notify *NotificationService
	events Publisher
	cache  cache.Store
	logger *zap.Logger
}

func NewInventoryService(repos *repository.Repositories, db *gorm.DB, notify *NotificationService, opts Options) *InventoryService {
	return &InventoryService{
		repos:  repos,
		db:     db,
		notify: notify,
		events: opts.Events,
		cache:  opts.Cache,
		logger: opts.Logger,
	}
}

type RawMaterialRequest struct {
	Name         string  `json:"name" binding:"required"`
	MaterialCode string  `json:"material_code"`
	Category     string  `json:"category"`
	Type         string  `json:"type"`
	Color        string  `json:"color"`
	SupplierID   string  `json:"supplier_id"`
	BatchNumber  string  `json:"batch_number"`
	QualityGrade string  `json:"quality_grade"`
	Unit         string  `json:"unit" binding:"required"`
	CurrentStock float64 `json:"current_stock" binding:"gte=0"`
	MinThreshold float64 `json:"min_threshold" binding:"gte=0"`
	MaxCapacity  float64 `json:"max_capacity" binding:"gte=0"`
	ReorderPoint float64 `json:"reorder_point" binding:"gte=0"`
	CostPerUnit  float64 `json:"cost_per_unit" binding:"gte=0"`
	Notes        string  `json:"notes"`
}

func (s *InventoryService) Create(ctx context.Context, req RawMaterialRequest, userID string) (*entity.RawMaterial, error) {
	code := req.MaterialCode
	if code == "" {
		code = newCode("RM")
	}
	m := &entity.RawMaterial{
		ID:           uuid.New().String(),
		MaterialCode: code,
		CreatedBy:    userID,
	}
	if err := s.apply(ctx, m, req); err != nil {
		return nil, err
	}
	m.CurrentStock = req.CurrentStock
	m.RefreshStatus(false)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		if err := repos.RawMaterial.Create(ctx, m); err != nil {
			return fmt.Errorf("create raw material: %w", err)
		}
		return recordMovement(ctx, repos, entity.ItemTypeRawMaterial, m.ID, m.Name, entity.MoveTypeAdjust,
			m.CurrentStock, m.CurrentStock, m.Unit, movementRef{Type: entity.RefTypeManual, ID: m.ID, Code: m.MaterialCode, UserID: userID, Notes: "opening stock"})
	})
	if err != nil {
		return nil, err
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return m, nil
}

func (s *InventoryService) apply(ctx context.Context, m *entity.RawMaterial, req RawMaterialRequest) error {
	m.Name = strings.TrimSpace(req.Name)
	m.Category = req.Category
	m.Type = req.Type
	m.Color = req.Color
	m.BatchNumber = req.BatchNumber
	m.QualityGrade = req.QualityGrade
	m.Unit = req.Unit
	m.MinThreshold = req.MinThreshold
	m.MaxCapacity = req.MaxCapacity
	m.ReorderPoint = req.ReorderPoint
	m.CostPerUnit = req.CostPerUnit
	m.Notes = req.Notes
	if req.SupplierID != "" && req.SupplierID != m.SupplierID {
		sup, err := s.repos.Supplier.GetByID(ctx, req.SupplierID)
		if err != nil {
			return lookup(err, "supplier %s", req.SupplierID)
		}
		m.SupplierID = sup.ID
		m.SupplierName = sup.Name
	}
	return nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (*entity.RawMaterial, error) {
	m, err := s.repos.RawMaterial.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "raw material %s", id)
	}
	return m, nil
}

func (s *InventoryService) List(ctx context.Context, params repository.RawMaterialListParams) ([]entity.RawMaterial, int64, error) {
	return s.repos.RawMaterial.List(ctx, params)
}

// Update edits the master data of a material. Stock only changes through
// AdjustStock, purchases and production.
func (s *InventoryService) Update(ctx context.Context, id string, req RawMaterialRequest) (*entity.RawMaterial, error) {
	m, err := s.repos.RawMaterial.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "raw material %s", id)
	}
	if err := s.apply(ctx, m, req); err != nil {
		return nil, err
	}
	if req.MaterialCode != "" {
		m.MaterialCode = req.MaterialCode
	}
	shipped, err := s.repos.Purchase.CountShippedForMaterial(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.RefreshStatus(shipped > 0)
	if err := s.repos.RawMaterial.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update raw material: %w", err)
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return m, nil
}

func (s *InventoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.repos.RawMaterial.GetByID(ctx, id); err != nil {
		return lookup(err, "raw material %s", id)
	}
	open, err := s.repos.Purchase.CountOpenForMaterial(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return stateError("raw material has %d open purchase orders", open)
	}
	if err := s.repos.RawMaterial.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete raw material: %w", err)
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

type AdjustStockRequest struct {
	Delta  float64 `json:"delta" binding:"required"`
	Reason string  `json:"reason" binding:"required"`
}

// AdjustStock books a manual correction (stock count, damage, return).
func (s *InventoryService) AdjustStock(ctx context.Context, id string, req AdjustStockRequest, userID string) (*entity.RawMaterial, error) {
	if req.Delta == 0 {
		return nil, invalid("delta must not be zero")
	}
	var m *entity.RawMaterial
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = adjustRawMaterial(ctx, s.repos.WithTx(tx), id, req.Delta, entity.MoveTypeAdjust,
			movementRef{Type: entity.RefTypeManual, ID: id, UserID: userID, Notes: req.Reason})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterStockChange(ctx, m)
	return m, nil
}

func (s *InventoryService) afterStockChange(ctx context.Context, m *entity.RawMaterial) {
	invalidateDashboard(ctx, s.cache, s.logger)
	s.events.Publish(sse.EventStockUpdate, map[string]interface{}{
		"item_type":     entity.ItemTypeRawMaterial,
		"item_id":       m.ID,
		"current_stock": m.CurrentStock,
		"status":        m.Status,
	})
	s.notify.lowStockMaterial(ctx, m)
}

func (s *InventoryService) ListMovements(ctx context.Context, params repository.StockMovementListParams) ([]entity.StockMovement, int64, error) {
	return s.repos.StockMovement.List(ctx, params)
}

// StockAlerts everything at or below its reorder threshold
type StockAlerts struct {
	RawMaterials []entity.RawMaterial `json:"raw_materials"`
	Products     []entity.Product     `json:"products"`
}

func (s *InventoryService) LowStock(ctx context.Context) (*StockAlerts, error) {
	materials, err := s.repos.RawMaterial.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock materials: %w", err)
	}
	products, err := s.repos.Product.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	return &StockAlerts{RawMaterials: materials, Products: products}, nil
}
