package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/sse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProcurementService raw material purchase orders
type ProcurementService struct {
	repos  *repository.Repositories
	db     *gorm.DB
	notify *NotificationService
	events Publisher
	cache  cache.Store
	logger *zap.Logger
}

func NewProcurementService(repos *repository.Repositories, db *gorm.DB, notify *NotificationService, opts Options) *ProcurementService {
	return &ProcurementService{
		repos:  repos,
		db:     db,
		notify: notify,
		events: opts.Events,
		cache:  opts.Cache,
		logger: opts.Logger,
	}
}

// poTransitions allowed purchase order status moves
var poTransitions = map[string][]string{
	entity.POStatusOrdered:  {entity.POStatusApproved, entity.POStatusCancelled},
	entity.POStatusApproved: {entity.POStatusShipped, entity.POStatusCancelled},
	entity.POStatusShipped:  {entity.POStatusDelivered},
}

type CreatePORequest struct {
	SupplierID       string  `json:"supplier_id" binding:"required"`
	MaterialID       string  `json:"material_id" binding:"required"`
	Quantity         float64 `json:"quantity" binding:"required,gt=0"`
	CostPerUnit      float64 `json:"cost_per_unit" binding:"gte=0"`
	ExpectedDelivery string  `json:"expected_delivery"` // YYYY-MM-DD
	Notes            string  `json:"notes"`
}

// CreatePO places an order. A non-empty idempotency key makes repeats
// return the order created first.
func (s *ProcurementService) CreatePO(ctx context.Context, req CreatePORequest, idempotencyKey, userID string) (*entity.PurchaseOrder, error) {
	key := strings.TrimSpace(idempotencyKey)
	if key != "" {
		po, err := s.repos.Purchase.GetByIdempotencyKey(ctx, key)
		if err == nil {
			return po, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load purchase order by key: %w", err)
		}
	}

	supplier, err := s.repos.Supplier.GetByID(ctx, req.SupplierID)
	if err != nil {
		return nil, lookup(err, "supplier %s", req.SupplierID)
	}
	material, err := s.repos.RawMaterial.GetByID(ctx, req.MaterialID)
	if err != nil {
		return nil, lookup(err, "raw material %s", req.MaterialID)
	}

	cost := req.CostPerUnit
	if cost == 0 {
		cost = material.CostPerUnit
	}
	total := decimal.NewFromFloat(req.Quantity).Mul(decimal.NewFromFloat(cost)).Round(2)

	po := &entity.PurchaseOrder{
		ID:               uuid.New().String(),
		OrderNumber:      newCode("PO"),
		SupplierID:       supplier.ID,
		SupplierName:     supplier.Name,
		MaterialID:       material.ID,
		MaterialName:     material.Name,
		Quantity:         req.Quantity,
		Unit:             material.Unit,
		CostPerUnit:      cost,
		TotalCost:        total.InexactFloat64(),
		Status:           entity.POStatusOrdered,
		ExpectedDelivery: parseDate(req.ExpectedDelivery),
		Notes:            req.Notes,
		CreatedBy:        userID,
	}
	if key != "" {
		po.IdempotencyKey = &key
	}

	if err := s.repos.Purchase.Create(ctx, po); err != nil {
		if key != "" {
			// lost a race with a concurrent request carrying the same key
			if existing, lerr := s.repos.Purchase.GetByIdempotencyKey(ctx, key); lerr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	s.notify.Notify(ctx, NotifyInput{
		Type:        entity.NotifTypePurchase,
		Title:       "Purchase order placed",
		Message:     fmt.Sprintf("%s: %g %s of %s from %s", po.OrderNumber, po.Quantity, po.Unit, po.MaterialName, po.SupplierName),
		Priority:    entity.NotifPriorityLow,
		Module:      "procurement",
		RelatedID:   po.ID,
		RelatedType: "purchase_order",
		CreatedBy:   userID,
	})
	invalidateDashboard(ctx, s.cache, s.logger)
	return po, nil
}

func (s *ProcurementService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.repos.Purchase.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "purchase order %s", id)
	}
	return po, nil
}

func (s *ProcurementService) List(ctx context.Context, params repository.POListParams) ([]entity.PurchaseOrder, int64, error) {
	return s.repos.Purchase.List(ctx, params)
}

type UpdatePOStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved shipped delivered cancelled"`
	Notes  string `json:"notes"`
}

// UpdateStatus moves an order along its lifecycle. Shipping marks the
// material in transit; delivery books the quantity into stock.
func (s *ProcurementService) UpdateStatus(ctx context.Context, id string, req UpdatePOStatusRequest, userID string) (*entity.PurchaseOrder, error) {
	var po *entity.PurchaseOrder
	var material *entity.RawMaterial

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		var err error
		po, err = repos.Purchase.GetByID(ctx, id)
		if err != nil {
			return lookup(err, "purchase order %s", id)
		}
		if !allowed(poTransitions, po.Status, req.Status) {
			return stateError("purchase order %s cannot move from %s to %s", po.OrderNumber, po.Status, req.Status)
		}

		now := time.Now()
		po.Status = req.Status
		if req.Notes != "" {
			po.Notes = req.Notes
		}
		switch req.Status {
		case entity.POStatusApproved:
			po.ApprovedBy = userID
			po.ApprovedAt = &now
		case entity.POStatusDelivered:
			po.ActualDelivery = &now
		}
		if err := repos.Purchase.Update(ctx, po); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}

		switch req.Status {
		case entity.POStatusDelivered:
			material, err = adjustRawMaterial(ctx, repos, po.MaterialID, po.Quantity, entity.MoveTypePurchaseIn,
				movementRef{Type: entity.RefTypePurchaseOrder, ID: po.ID, Code: po.OrderNumber, UserID: userID})
			return err
		case entity.POStatusShipped, entity.POStatusCancelled:
			material, err = refreshMaterialStatus(ctx, repos, po.MaterialID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterStatusChange(ctx, po, material, userID)
	return po, nil
}

func (s *ProcurementService) afterStatusChange(ctx context.Context, po *entity.PurchaseOrder, material *entity.RawMaterial, userID string) {
	invalidateDashboard(ctx, s.cache, s.logger)
	if material != nil {
		s.events.Publish(sse.EventStockUpdate, map[string]interface{}{
			"item_type":     entity.ItemTypeRawMaterial,
			"item_id":       material.ID,
			"current_stock": material.CurrentStock,
			"status":        material.Status,
		})
	}

	priority := entity.NotifPriorityLow
	if po.Status == entity.POStatusDelivered || po.Status == entity.POStatusCancelled {
		priority = entity.NotifPriorityMedium
	}
	s.notify.Notify(ctx, NotifyInput{
		Type:        entity.NotifTypePurchase,
		Title:       "Purchase order " + po.Status,
		Message:     fmt.Sprintf("%s for %s is now %s", po.OrderNumber, po.MaterialName, po.Status),
		Priority:    priority,
		Module:      "procurement",
		RelatedID:   po.ID,
		RelatedType: "purchase_order",
		Metadata:    map[string]interface{}{"status": po.Status, "material_id": po.MaterialID},
		CreatedBy:   userID,
	})
}

// refreshMaterialStatus recomputes a material's status after its shipment
// state changed.
func refreshMaterialStatus(ctx context.Context, repos *repository.Repositories, materialID string) (*entity.RawMaterial, error) {
	m, err := repos.RawMaterial.GetByID(ctx, materialID)
	if err != nil {
		return nil, lookup(err, "raw material %s", materialID)
	}
	shipped, err := repos.Purchase.CountShippedForMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("count shipments: %w", err)
	}
	m.RefreshStatus(shipped > 0)
	if err := repos.RawMaterial.UpdateStatus(ctx, m.ID, m.Status); err != nil {
		return nil, fmt.Errorf("update material status: %w", err)
	}
	return m, nil
}

func allowed(transitions map[string][]string, from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
