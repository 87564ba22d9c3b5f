package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dashboardCacheKey = "erp:dashboard:summary"

// movementRef is the document a stock change belongs to.
type movementRef struct {
	Type   string
	ID     string
	Code   string
	UserID string
	Notes  string
}

func newCode(prefix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
}

// adjustRawMaterial changes a material's stock by delta, recomputes its
// status and writes the ledger row.
func adjustRawMaterial(ctx context.Context, repos *repository.Repositories, materialID string, delta float64, moveType string, ref movementRef) (*entity.RawMaterial, error) {
	m, err := repos.RawMaterial.AdjustStock(ctx, materialID, delta)
	if errors.Is(err, repository.ErrInsufficientStock) {
		return nil, fmt.Errorf("%s has %s %s, needs %s: %w",
			m.Name, calc.FormatQuantity(m.CurrentStock), m.Unit, calc.FormatQuantity(-delta), ErrInsufficientStock)
	}
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

	err = recordMovement(ctx, repos, entity.ItemTypeRawMaterial, m.ID, m.Name, moveType, delta, m.CurrentStock, m.Unit, ref)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// syncProductStock refreshes a product's stock counter. Individually tracked
// products count their available units; bulk products add delta.
func syncProductStock(ctx context.Context, repos *repository.Repositories, productID string, delta float64) (*entity.Product, error) {
	p, err := repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, lookup(err, "product %s", productID)
	}
	if p.TracksIndividually() {
		n, err := repos.IndividualProduct.CountByStatus(ctx, p.ID, entity.IPStatusAvailable)
		if err != nil {
			return nil, fmt.Errorf("count available units: %w", err)
		}
		p.CurrentStock = float64(n)
	} else {
		next := p.CurrentStock + delta
		if next < -1e-9 {
			return nil, fmt.Errorf("%s has %s %s, needs %s: %w",
				p.Name, calc.FormatQuantity(p.CurrentStock), p.Unit, calc.FormatQuantity(-delta), ErrInsufficientStock)
		}
		p.CurrentStock = calc.RoundTo(next, 4)
	}
	p.RefreshStatus()
	if err := repos.Product.UpdateStock(ctx, p.ID, p.CurrentStock, p.Status); err != nil {
		return nil, fmt.Errorf("update product stock: %w", err)
	}
	return p, nil
}

func recordMovement(ctx context.Context, repos *repository.Repositories, itemType, itemID, itemName, moveType string, qty, balance float64, unit string, ref movementRef) error {
	if qty == 0 {
		return nil
	}
	mv := &entity.StockMovement{
		ID:            uuid.New().String(),
		ItemType:      itemType,
		ItemID:        itemID,
		ItemName:      itemName,
		MovementType:  moveType,
		Quantity:      calc.RoundTo(qty, 4),
		BalanceAfter:  calc.RoundTo(balance, 4),
		Unit:          unit,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		ReferenceCode: ref.Code,
		Notes:         ref.Notes,
		CreatedBy:     ref.UserID,
	}
	if err := repos.StockMovement.Create(ctx, mv); err != nil {
		return fmt.Errorf("record stock movement: %w", err)
	}
	return nil
}

func invalidateDashboard(ctx context.Context, store cache.Store, logger *zap.Logger) {
	if err := store.Del(ctx, dashboardCacheKey); err != nil {
		logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// diffIDs returns the ids in a that are not in b.
func diffIDs(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	var out []string
	for _, id := range a {
		if !inB[id] {
			out = append(out, id)
		}
	}
	return out
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
