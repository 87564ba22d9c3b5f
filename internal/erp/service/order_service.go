package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/metrics"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/sse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService customer orders from acceptance to delivery
type OrderService struct {
	repos   *repository.Repositories
	db      *gorm.DB
	notify  *NotificationService
	events  Publisher
	cache   cache.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewOrderService(repos *repository.Repositories, db *gorm.DB, notify *NotificationService, opts Options) *OrderService {
	return &OrderService{
		repos:   repos,
		db:      db,
		notify:  notify,
		events:  opts.Events,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// orderTransitions allowed order status moves
var orderTransitions = map[string][]string{
	entity.OrderStatusPending:    {entity.OrderStatusAccepted, entity.OrderStatusCancelled},
	entity.OrderStatusAccepted:   {entity.OrderStatusDispatched, entity.OrderStatusCancelled},
	entity.OrderStatusDispatched: {entity.OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	return allowed(orderTransitions, from, to)
}

type OrderItemInput struct {
	ProductID   string  `json:"product_id" binding:"required"`
	ProductType string  `json:"product_type" binding:"omitempty,oneof=product raw_material"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"gte=0"`
}

type CreateOrderRequest struct {
	CustomerID       string           `json:"customer_id" binding:"required"`
	ExpectedDelivery string           `json:"expected_delivery"` // YYYY-MM-DD
	GSTRate          float64          `json:"gst_rate" binding:"gte=0,lte=100"`
	DiscountAmount   float64          `json:"discount_amount" binding:"gte=0"`
	PaidAmount       float64          `json:"paid_amount" binding:"gte=0"`
	ShippingAddress  string           `json:"shipping_address"`
	Notes            string           `json:"notes"`
	Items            []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// orderTotals money figures of an order, rounded to paise
type orderTotals struct {
	Subtotal    decimal.Decimal
	GST         decimal.Decimal
	Total       decimal.Decimal
	Outstanding decimal.Decimal
}

func computeTotals(items []entity.OrderItem, gstRate, discount, paid float64) (orderTotals, error) {
	var t orderTotals
	for _, it := range items {
		t.Subtotal = t.Subtotal.Add(decimal.NewFromFloat(it.TotalPrice))
	}
	t.Subtotal = t.Subtotal.Round(2)
	t.GST = t.Subtotal.Mul(decimal.NewFromFloat(gstRate)).Div(decimal.NewFromInt(100)).Round(2)
	t.Total = t.Subtotal.Add(t.GST).Sub(decimal.NewFromFloat(discount)).Round(2)
	if t.Total.IsNegative() {
		return t, invalid("discount %.2f exceeds the order value %s", discount, t.Subtotal.Add(t.GST).StringFixed(2))
	}
	t.Outstanding = t.Total.Sub(decimal.NewFromFloat(paid)).Round(2)
	if t.Outstanding.IsNegative() {
		return t, invalid("paid amount %.2f exceeds the order total %s", paid, t.Total.StringFixed(2))
	}
	return t, nil
}

func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest, userID string) (*entity.Order, error) {
	customer, err := s.repos.Customer.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, lookup(err, "customer %s", req.CustomerID)
	}

	order := &entity.Order{
		ID:               uuid.New().String(),
		OrderNumber:      newCode("ORD"),
		CustomerID:       customer.ID,
		CustomerName:     customer.Name,
		Status:           entity.OrderStatusPending,
		OrderDate:        time.Now(),
		ExpectedDelivery: parseDate(req.ExpectedDelivery),
		GSTRate:          req.GSTRate,
		DiscountAmount:   req.DiscountAmount,
		PaidAmount:       req.PaidAmount,
		ShippingAddress:  req.ShippingAddress,
		Notes:            req.Notes,
		CreatedBy:        userID,
	}
	if order.ShippingAddress == "" {
		order.ShippingAddress = customer.Address
	}

	verr := &ValidationError{Message: "invalid order items"}
	for i, in := range req.Items {
		item, err := s.resolveItem(ctx, order.ID, in)
		if err != nil {
			verr.Add(ValidationDetail{Row: i + 1, ID: in.ProductID, Fields: []string{"product_id"}, Message: fmt.Sprintf("row %d: %v", i+1, err)})
			continue
		}
		order.Items = append(order.Items, *item)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	totals, err := computeTotals(order.Items, req.GSTRate, req.DiscountAmount, req.PaidAmount)
	if err != nil {
		return nil, err
	}
	order.Subtotal = totals.Subtotal.InexactFloat64()
	order.GSTAmount = totals.GST.InexactFloat64()
	order.TotalAmount = totals.Total.InexactFloat64()
	order.OutstandingAmount = totals.Outstanding.InexactFloat64()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		if err := repos.Order.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return repos.Customer.AddOrderStats(ctx, customer.ID, 1, order.TotalAmount, order.OrderDate)
	})
	if err != nil {
		return nil, err
	}

	s.orderChanged(ctx, order, userID)
	return order, nil
}

func (s *OrderService) resolveItem(ctx context.Context, orderID string, in OrderItemInput) (*entity.OrderItem, error) {
	item := &entity.OrderItem{
		ID:          uuid.New().String(),
		OrderID:     orderID,
		ProductID:   in.ProductID,
		ProductType: in.ProductType,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
	}
	if item.ProductType == "" {
		item.ProductType = calc.MaterialTypeProduct
	}
	if item.ProductType == calc.MaterialTypeRaw {
		m, err := s.repos.RawMaterial.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, lookup(err, "raw material %s", in.ProductID)
		}
		item.ProductName = m.Name
		item.Unit = m.Unit
	} else {
		p, err := s.repos.Product.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, lookup(err, "product %s", in.ProductID)
		}
		item.ProductName = p.Name
		item.Unit = p.Unit
	}
	item.TotalPrice = decimal.NewFromInt(int64(in.Quantity)).Mul(decimal.NewFromFloat(in.UnitPrice)).Round(2).InexactFloat64()
	return item, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*entity.Order, error) {
	o, err := s.repos.Order.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "order %s", id)
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, params repository.OrderListParams) ([]entity.Order, int64, error) {
	return s.repos.Order.List(ctx, params)
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted dispatched delivered cancelled"`
	Reason string `json:"reason"`
}

// UpdateStatus moves an order along pending, accepted, dispatched and
// delivered, or cancels it. Dispatch sells the selected units and deducts
// stock; cancelling releases held units on a best-effort basis.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, req UpdateOrderStatusRequest, userID string) (*entity.Order, error) {
	var order *entity.Order
	var touched []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		var err error
		order, err = repos.Order.GetByID(ctx, id)
		if err != nil {
			return lookup(err, "order %s", id)
		}
		if !CanTransition(order.Status, req.Status) {
			return stateError("order %s cannot move from %s to %s", order.OrderNumber, order.Status, req.Status)
		}

		now := time.Now()
		switch req.Status {
		case entity.OrderStatusAccepted:
			order.AcceptedAt = &now
		case entity.OrderStatusDispatched:
			if touched, err = s.dispatch(ctx, repos, order, userID, now); err != nil {
				return err
			}
			order.DispatchedAt = &now
		case entity.OrderStatusDelivered:
			order.DeliveredAt = &now
		case entity.OrderStatusCancelled:
			order.CancelledAt = &now
			order.CancelReason = req.Reason
		}
		order.Status = req.Status
		if err := repos.Order.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order.Status == entity.OrderStatusCancelled {
		s.releaseUnits(ctx, order)
	}
	for _, productID := range touched {
		if p, err := s.repos.Product.GetByID(ctx, productID); err == nil {
			s.notify.lowStockProduct(ctx, p)
		}
	}
	s.orderChanged(ctx, order, userID)
	return order, nil
}

// dispatch checks every product line is fully selected and books the goods
// out. It returns the products whose stock changed.
func (s *OrderService) dispatch(ctx context.Context, repos *repository.Repositories, order *entity.Order, userID string, now time.Time) ([]string, error) {
	products := make(map[string]*entity.Product)
	var short []string
	for _, it := range order.Items {
		if it.ProductType != calc.MaterialTypeProduct {
			continue
		}
		p, err := repos.Product.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, lookup(err, "product %s", it.ProductID)
		}
		products[it.ProductID] = p
		if len(it.SelectedIndividualProducts) < it.Quantity {
			short = append(short, fmt.Sprintf("%s (%d of %d units selected)", it.ProductName, len(it.SelectedIndividualProducts), it.Quantity))
		}
	}
	if len(short) > 0 {
		return nil, stateError("select individual products before dispatch: %s", strings.Join(short, ", "))
	}

	ref := movementRef{Type: entity.RefTypeOrder, ID: order.ID, Code: order.OrderNumber, UserID: userID}
	var touched []string
	for _, it := range order.Items {
		if it.ProductType == calc.MaterialTypeRaw {
			if _, err := adjustRawMaterial(ctx, repos, it.ProductID, -float64(it.Quantity), entity.MoveTypeSalesOut, ref); err != nil {
				return nil, err
			}
			continue
		}

		p := products[it.ProductID]
		ids := []string(it.SelectedIndividualProducts)
		n, err := repos.IndividualProduct.MarkSold(ctx, ids, it.ID, now)
		if err != nil {
			return nil, fmt.Errorf("sell units of %s: %w", it.ProductName, err)
		}
		if int(n) != len(ids) {
			return nil, stateError("only %d of %d selected units of %s are still reserved", n, len(ids), it.ProductName)
		}
		// bulk stock drops by the line quantity; individual stock is recounted
		qty := float64(it.Quantity)
		if p.TracksIndividually() {
			qty = float64(len(ids))
		}
		updated, err := syncProductStock(ctx, repos, p.ID, -qty)
		if err != nil {
			return nil, err
		}
		if err := recordMovement(ctx, repos, entity.ItemTypeProduct, p.ID, p.Name, entity.MoveTypeSalesOut, -qty, updated.CurrentStock, p.Unit, ref); err != nil {
			return nil, err
		}
		touched = append(touched, p.ID)
	}
	return touched, nil
}

// releaseUnits returns the units held by a cancelled order to stock. The
// cancel already happened, so failures are only logged.
func (s *OrderService) releaseUnits(ctx context.Context, order *entity.Order) {
	for _, it := range order.Items {
		if len(it.SelectedIndividualProducts) == 0 {
			continue
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repos := s.repos.WithTx(tx)
			if _, err := repos.IndividualProduct.SetStatus(ctx, it.SelectedIndividualProducts, []string{entity.IPStatusReserved}, entity.IPStatusAvailable, ""); err != nil {
				return err
			}
			_, err := syncProductStock(ctx, repos, it.ProductID, 0)
			return err
		})
		if err != nil {
			s.logger.Warn("failed to release order units",
				zap.String("order", order.OrderNumber),
				zap.String("item_id", it.ID),
				zap.Error(err))
		}
	}
}

type SelectUnitsRequest struct {
	IndividualProductIDs []string `json:"individual_product_ids"`
}

// SelectIndividualProducts sets the units an order line ships. Newly picked
// units are reserved, dropped ones become available again.
func (s *OrderService) SelectIndividualProducts(ctx context.Context, orderID, itemID string, req SelectUnitsRequest, userID string) (*entity.OrderItem, error) {
	ids := uniqueIDs(req.IndividualProductIDs)
	var item *entity.OrderItem

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		order, err := repos.Order.GetByID(ctx, orderID)
		if err != nil {
			return lookup(err, "order %s", orderID)
		}
		if order.Status != entity.OrderStatusPending && order.Status != entity.OrderStatusAccepted {
			return stateError("units of order %s cannot change once it is %s", order.OrderNumber, order.Status)
		}
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				item = &order.Items[i]
			}
		}
		if item == nil {
			return fmt.Errorf("item %s of order %s: %w", itemID, order.OrderNumber, ErrNotFound)
		}
		if item.ProductType != calc.MaterialTypeProduct {
			return stateError("%s is a raw material and has no individual products", item.ProductName)
		}
		if len(ids) > item.Quantity {
			return invalid("%d units selected for %d x %s", len(ids), item.Quantity, item.ProductName)
		}

		units, err := repos.IndividualProduct.GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("load units: %w", err)
		}
		byID := make(map[string]entity.IndividualProduct, len(units))
		for _, u := range units {
			byID[u.ID] = u
		}
		verr := &ValidationError{Message: "invalid unit selection"}
		for _, id := range ids {
			u, ok := byID[id]
			switch {
			case !ok:
				verr.Add(ValidationDetail{ID: id, Message: fmt.Sprintf("unit %s not found", id)})
			case u.ProductID != item.ProductID:
				verr.Add(ValidationDetail{ID: id, Message: fmt.Sprintf("unit %s is not a %s", u.SerialNumber, item.ProductName)})
			case u.Status == entity.IPStatusAvailable:
			case u.Status == entity.IPStatusReserved && u.ReservedFor == item.ID:
			default:
				verr.Add(ValidationDetail{ID: id, Message: fmt.Sprintf("unit %s is %s", u.SerialNumber, u.Status)})
			}
		}
		if verr.HasErrors() {
			return verr
		}

		current := []string(item.SelectedIndividualProducts)
		added := diffIDs(ids, current)
		dropped := diffIDs(current, ids)
		n, err := repos.IndividualProduct.SetStatus(ctx, added, []string{entity.IPStatusAvailable}, entity.IPStatusReserved, item.ID)
		if err != nil {
			return fmt.Errorf("reserve units: %w", err)
		}
		if int(n) != len(added) {
			return stateError("only %d of %d units could be reserved", n, len(added))
		}
		if _, err := repos.IndividualProduct.SetStatus(ctx, dropped, []string{entity.IPStatusReserved}, entity.IPStatusAvailable, ""); err != nil {
			return fmt.Errorf("release units: %w", err)
		}

		item.SelectedIndividualProducts = ids
		if err := repos.Order.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update order item: %w", err)
		}
		_, err = syncProductStock(ctx, repos, item.ProductID, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return item, nil
}

type PaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Notes  string  `json:"notes"`
}

// RecordPayment adds a customer payment to the order.
func (s *OrderService) RecordPayment(ctx context.Context, id string, req PaymentRequest, userID string) (*entity.Order, error) {
	var order *entity.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		var err error
		order, err = repos.Order.GetByID(ctx, id)
		if err != nil {
			return lookup(err, "order %s", id)
		}
		if order.Status == entity.OrderStatusCancelled {
			return stateError("order %s is cancelled", order.OrderNumber)
		}
		paid := decimal.NewFromFloat(order.PaidAmount).Add(decimal.NewFromFloat(req.Amount)).Round(2)
		outstanding := decimal.NewFromFloat(order.TotalAmount).Sub(paid).Round(2)
		if outstanding.IsNegative() {
			return invalid("payment of %.2f exceeds the outstanding %.2f", req.Amount, order.OutstandingAmount)
		}
		order.PaidAmount = paid.InexactFloat64()
		order.OutstandingAmount = outstanding.InexactFloat64()
		if req.Notes != "" {
			order.Notes = appendNote(order.Notes, req.Notes)
		}
		return repos.Order.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return order, nil
}

func (s *OrderService) orderChanged(ctx context.Context, order *entity.Order, userID string) {
	s.metrics.OrderTransition(order.Status)
	invalidateDashboard(ctx, s.cache, s.logger)
	s.events.Publish(sse.EventOrderUpdate, map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})

	priority := entity.NotifPriorityLow
	if order.Status == entity.OrderStatusPending || order.Status == entity.OrderStatusCancelled {
		priority = entity.NotifPriorityMedium
	}
	s.notify.Notify(ctx, NotifyInput{
		Type:        entity.NotifTypeOrder,
		Title:       "Order " + order.Status,
		Message:     fmt.Sprintf("%s for %s (%.2f) is %s", order.OrderNumber, order.CustomerName, order.TotalAmount, order.Status),
		Priority:    priority,
		Module:      "orders",
		RelatedID:   order.ID,
		RelatedType: "order",
		CreatedBy:   userID,
	})
}
