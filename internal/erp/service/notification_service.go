package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/metrics"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/sse"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type NotificationService struct {
	repo        *repository.NotificationRepository
	repos       *repository.Repositories
	events      Publisher
	metrics     *metrics.Metrics
	logger      *zap.Logger
	alertWindow time.Duration
}

func NewNotificationService(repos *repository.Repositories, opts Options) *NotificationService {
	return &NotificationService{
		repo:        repos.Notification,
		repos:       repos,
		events:      opts.Events,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		alertWindow: opts.AlertWindow,
	}
}

type NotifyInput struct {
	Type        string
	Title       string
	Message     string
	Priority    string
	Module      string
	RelatedID   string
	RelatedType string
	Metadata    map[string]interface{}
	CreatedBy   string
}

// Create stores a notification and pushes it to connected clients.
func (s *NotificationService) Create(ctx context.Context, in NotifyInput) (*entity.Notification, error) {
	n := &entity.Notification{
		ID:          uuid.New().String(),
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		Priority:    in.Priority,
		Status:      entity.NotifStatusUnread,
		Module:      in.Module,
		RelatedID:   in.RelatedID,
		RelatedType: in.RelatedType,
		CreatedBy:   in.CreatedBy,
	}
	if n.Priority == "" {
		n.Priority = entity.NotifPriorityMedium
	}
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		n.Metadata = datatypes.JSON(raw)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	s.events.Publish(sse.EventNotification, n)
	return n, nil
}

// Notify is Create for side effects: failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) {
	if _, err := s.Create(ctx, in); err != nil {
		s.logger.Warn("failed to create notification",
			zap.String("type", in.Type),
			zap.String("related_id", in.RelatedID),
			zap.Error(err))
	}
}

// notifyOnce skips the notification when an unread one of the same type
// about the same record was raised inside the alert window.
func (s *NotificationService) notifyOnce(ctx context.Context, in NotifyInput) bool {
	exists, err := s.repo.HasRecentUnread(ctx, in.Type, in.RelatedID, time.Now().Add(-s.alertWindow))
	if err != nil {
		s.logger.Warn("failed to check recent notifications", zap.String("related_id", in.RelatedID), zap.Error(err))
		return false
	}
	if exists {
		return false
	}
	if _, err := s.Create(ctx, in); err != nil {
		s.logger.Warn("failed to create notification",
			zap.String("type", in.Type),
			zap.String("related_id", in.RelatedID),
			zap.Error(err))
		return false
	}
	return true
}

// MaterialShortage raises an alert for a recipe material that cannot cover
// a planned batch and toasts the requesting user on every calculation.
func (s *NotificationService) MaterialShortage(ctx context.Context, productName string, req calc.MaterialRequirement, userID string) {
	priority := entity.NotifPriorityHigh
	title := "Material low for production"
	if req.Status == calc.AvailabilityUnavailable {
		priority = entity.NotifPriorityUrgent
		title = "Material unavailable for production"
	}
	sent := s.notifyOnce(ctx, NotifyInput{
		Type:     entity.NotifTypeLowStock,
		Title:    title,
		Priority: priority,
		Message: fmt.Sprintf("%s needs %s %s of %s, %s available (short by %s)",
			productName, calc.FormatQuantity(req.RequiredQuantity), req.Unit, req.MaterialName,
			calc.FormatQuantity(req.AvailableQuantity), calc.FormatQuantity(req.Shortage)),
		Module:      "production",
		RelatedID:   req.MaterialID,
		RelatedType: req.MaterialType,
		Metadata: map[string]interface{}{
			"required_quantity":  req.RequiredQuantity,
			"available_quantity": req.AvailableQuantity,
			"shortage":           req.Shortage,
			"unit":               req.Unit,
			"product_name":       productName,
		},
		CreatedBy: userID,
	})
	if sent {
		s.metrics.StockAlert(req.MaterialType)
	}
	if userID != "" {
		s.events.PublishToUser(userID, sse.EventShortageAlert, map[string]interface{}{
			"product_name":       productName,
			"material_id":        req.MaterialID,
			"material_name":      req.MaterialName,
			"status":             req.Status,
			"required_quantity":  req.RequiredQuantity,
			"available_quantity": req.AvailableQuantity,
			"shortage":           req.Shortage,
			"unit":               req.Unit,
		})
	}
}

func (s *NotificationService) lowStockMaterial(ctx context.Context, m *entity.RawMaterial) bool {
	if m.Status == calc.StockInStock {
		return false
	}
	priority := entity.NotifPriorityHigh
	if m.CurrentStock <= 0 {
		priority = entity.NotifPriorityUrgent
	}
	sent := s.notifyOnce(ctx, NotifyInput{
		Type:     entity.NotifTypeLowStock,
		Title:    "Raw material low on stock",
		Priority: priority,
		Message: fmt.Sprintf("%s is at %s %s (reorder point %s)",
			m.Name, calc.FormatQuantity(m.CurrentStock), m.Unit, calc.FormatQuantity(m.LowStockThreshold())),
		Module:      "inventory",
		RelatedID:   m.ID,
		RelatedType: entity.ItemTypeRawMaterial,
		Metadata:    map[string]interface{}{"current_stock": m.CurrentStock, "status": m.Status},
	})
	if sent {
		s.metrics.StockAlert(entity.ItemTypeRawMaterial)
	}
	return sent
}

func (s *NotificationService) lowStockProduct(ctx context.Context, p *entity.Product) bool {
	if p.Status == calc.StockInStock {
		return false
	}
	priority := entity.NotifPriorityMedium
	if p.CurrentStock <= 0 {
		priority = entity.NotifPriorityHigh
	}
	sent := s.notifyOnce(ctx, NotifyInput{
		Type:     entity.NotifTypeLowStock,
		Title:    "Product low on stock",
		Priority: priority,
		Message: fmt.Sprintf("%s has %s %s left",
			p.Name, calc.FormatQuantity(p.CurrentStock), p.Unit),
		Module:      "inventory",
		RelatedID:   p.ID,
		RelatedType: entity.ItemTypeProduct,
		Metadata:    map[string]interface{}{"current_stock": p.CurrentStock, "status": p.Status},
	})
	if sent {
		s.metrics.StockAlert(entity.ItemTypeProduct)
	}
	return sent
}

// ScanLowStock raises alerts for every product and raw material at or below
// its threshold and returns how many new alerts were created.
func (s *NotificationService) ScanLowStock(ctx context.Context) (int, error) {
	materials, err := s.repos.RawMaterial.ListLowStock(ctx)
	if err != nil {
		return 0, fmt.Errorf("list low stock materials: %w", err)
	}
	products, err := s.repos.Product.ListLowStock(ctx)
	if err != nil {
		return 0, fmt.Errorf("list low stock products: %w", err)
	}

	created := 0
	for i := range materials {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if s.lowStockMaterial(ctx, &materials[i]) {
			created++
		}
	}
	for i := range products {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if s.lowStockProduct(ctx, &products[i]) {
			created++
		}
	}
	return created, nil
}

func (s *NotificationService) List(ctx context.Context, params repository.NotificationListParams) ([]entity.Notification, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return lookup(s.repo.SetStatus(ctx, id, entity.NotifStatusRead), "notification %s", id)
}

func (s *NotificationService) Dismiss(ctx context.Context, id string) error {
	return lookup(s.repo.SetStatus(ctx, id, entity.NotifStatusDismissed), "notification %s", id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, module string) (int64, error) {
	return s.repo.MarkAllRead(ctx, module)
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	return s.repo.CountUnread(ctx)
}
