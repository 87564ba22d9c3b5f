package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlanningService computes material requirements and keeps the per-product
// planning draft in the cache store.
type PlanningService struct {
	repos    *repository.Repositories
	db       *gorm.DB
	recipe   *RecipeService
	notify   *NotificationService
	cache    cache.Store
	logger   *zap.Logger
	draftTTL time.Duration
}

func NewPlanningService(repos *repository.Repositories, db *gorm.DB, recipe *RecipeService, notify *NotificationService, opts Options) *PlanningService {
	return &PlanningService{
		repos:    repos,
		db:       db,
		recipe:   recipe,
		notify:   notify,
		cache:    opts.Cache,
		logger:   opts.Logger,
		draftTTL: opts.DraftTTL,
	}
}

// RequirementPlan materials a batch of one product needs
type RequirementPlan struct {
	ProductID       string                     `json:"product_id"`
	ProductName     string                     `json:"product_name"`
	PlannedQuantity int                        `json:"planned_quantity"`
	SQMPerUnit      float64                    `json:"sqm_per_unit"`
	TotalSQM        float64                    `json:"total_sqm"`
	Materials       []calc.MaterialRequirement `json:"materials"`
	Shortages       int                        `json:"shortages"`
}

// PlanningDraft the unsaved planning state of one product
type PlanningDraft struct {
	ProductID       string                     `json:"product_id"`
	ProductName     string                     `json:"product_name"`
	PlannedQuantity int                        `json:"planned_quantity"`
	Priority        string                     `json:"priority"`
	MachineID       string                     `json:"machine_id"`
	Notes           string                     `json:"notes"`
	TotalSQM        float64                    `json:"total_sqm"`
	Requirements    []calc.MaterialRequirement `json:"requirements"`
	Consumed        []calc.MaterialRequirement `json:"consumed"`
	UpdatedBy       string                     `json:"updated_by"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

func draftKey(productID string) string {
	return "erp:draft:" + productID
}

// CalculateRequirements scales the product recipe to plannedQuantity units
// and checks each material against stock. Short materials raise a
// notification.
func (s *PlanningService) CalculateRequirements(ctx context.Context, productID string, plannedQuantity int, userID string) (*RequirementPlan, error) {
	if plannedQuantity < 0 {
		return nil, invalid("planned_quantity cannot be negative")
	}
	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, lookup(err, "product %s", productID)
	}

	plan := &RequirementPlan{
		ProductID:       product.ID,
		ProductName:     product.Name,
		PlannedQuantity: plannedQuantity,
		SQMPerUnit:      calc.RoundTo(product.SQM(), 4),
		TotalSQM:        calc.TotalSQM(plannedQuantity, product.SQM()),
		Materials:       []calc.MaterialRequirement{},
	}

	recipe, err := s.repos.Recipe.GetByProductID(ctx, product.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return plan, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}

	for _, rm := range recipe.Materials {
		req := calc.MaterialRequirement{
			MaterialID:     rm.MaterialID,
			MaterialName:   rm.MaterialName,
			MaterialType:   rm.MaterialType,
			QuantityPerSQM: rm.QuantityPerSQM,
			Unit:           rm.Unit,
			CostPerUnit:    rm.CostPerUnit,
		}
		if err := s.evaluate(ctx, s.repos, &req, plan.TotalSQM); err != nil {
			return nil, err
		}
		if req.Status != calc.AvailabilityAvailable {
			plan.Shortages++
			s.notify.MaterialShortage(ctx, product.Name, req, userID)
		}
		plan.Materials = append(plan.Materials, req)
	}
	return plan, nil
}

// evaluate refreshes the available quantity of a requirement row and
// recomputes its status for the batch area.
func (s *PlanningService) evaluate(ctx context.Context, repos *repository.Repositories, req *calc.MaterialRequirement, totalSQM float64) error {
	available, err := availableQuantity(ctx, repos, req)
	if err != nil {
		return err
	}
	req.AvailableQuantity = available
	req.Evaluate(totalSQM)
	return nil
}

// availableQuantity is the raw material stock, or for a product-type
// material its available units (individual) or stock not held by open
// batches (bulk).
func availableQuantity(ctx context.Context, repos *repository.Repositories, req *calc.MaterialRequirement) (float64, error) {
	if req.IsProduct() {
		p, err := repos.Product.GetByID(ctx, req.MaterialID)
		if err != nil {
			return 0, lookup(err, "product %s", req.MaterialID)
		}
		if req.MaterialName == "" {
			req.MaterialName = p.Name
		}
		if req.Unit == "" {
			req.Unit = p.Unit
		}
		if !p.TracksIndividually() {
			held, err := repos.Production.SumReserved(ctx, p.ID)
			if err != nil {
				return 0, fmt.Errorf("sum reserved %s: %w", p.Name, err)
			}
			return math.Max(0, calc.RoundTo(p.CurrentStock-held, 4)), nil
		}
		n, err := repos.IndividualProduct.CountByStatus(ctx, p.ID, entity.IPStatusAvailable)
		if err != nil {
			return 0, fmt.Errorf("count available units: %w", err)
		}
		return float64(n), nil
	}
	m, err := repos.RawMaterial.GetByID(ctx, req.MaterialID)
	if err != nil {
		return 0, lookup(err, "raw material %s", req.MaterialID)
	}
	if req.MaterialName == "" {
		req.MaterialName = m.Name
	}
	if req.Unit == "" {
		req.Unit = m.Unit
	}
	if req.CostPerUnit == 0 {
		req.CostPerUnit = m.CostPerUnit
	}
	return m.CurrentStock, nil
}

type SaveDraftRequest struct {
	PlannedQuantity int                        `json:"planned_quantity" binding:"required,gt=0"`
	Priority        string                     `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	MachineID       string                     `json:"machine_id"`
	Notes           string                     `json:"notes"`
	Requirements    []calc.MaterialRequirement `json:"requirements"`
	Consumed        []calc.MaterialRequirement `json:"consumed"`
}

// SaveDraft stores the planning state of a product. Every row is
// re-evaluated against current stock before it is written.
func (s *PlanningService) SaveDraft(ctx context.Context, productID string, req SaveDraftRequest, userID string) (*PlanningDraft, error) {
	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, lookup(err, "product %s", productID)
	}
	draft := &PlanningDraft{
		ProductID:       product.ID,
		ProductName:     product.Name,
		PlannedQuantity: req.PlannedQuantity,
		Priority:        req.Priority,
		MachineID:       req.MachineID,
		Notes:           req.Notes,
		TotalSQM:        calc.TotalSQM(req.PlannedQuantity, product.SQM()),
		Requirements:    dedupeRequirements(req.Requirements),
		Consumed:        dedupeRequirements(req.Consumed),
	}
	if draft.Priority == "" {
		draft.Priority = entity.PriorityNormal
	}
	// a material sits in one list only, consumed wins
	var ids []string
	for _, c := range draft.Consumed {
		ids = append(ids, c.MaterialID)
	}
	draft.Requirements, _, _ = calc.MoveToConsumed(draft.Requirements, nil, ids)

	if err := s.refresh(ctx, draft); err != nil {
		return nil, err
	}
	if err := s.store(ctx, draft, userID); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *PlanningService) refresh(ctx context.Context, draft *PlanningDraft) error {
	for i := range draft.Requirements {
		if err := s.evaluate(ctx, s.repos, &draft.Requirements[i], draft.TotalSQM); err != nil {
			return err
		}
	}
	for i := range draft.Consumed {
		c := &draft.Consumed[i]
		if err := s.evaluate(ctx, s.repos, c, draft.TotalSQM); err != nil {
			return err
		}
		c.IndividualProductIDs = uniqueIDs(c.IndividualProductIDs)
	}
	return nil
}

func (s *PlanningService) store(ctx context.Context, draft *PlanningDraft, userID string) error {
	draft.UpdatedBy = userID
	draft.UpdatedAt = time.Now()
	if draft.Requirements == nil {
		draft.Requirements = []calc.MaterialRequirement{}
	}
	if draft.Consumed == nil {
		draft.Consumed = []calc.MaterialRequirement{}
	}
	if err := cache.SetJSON(ctx, s.cache, draftKey(draft.ProductID), draft, s.draftTTL); err != nil {
		return fmt.Errorf("save planning draft: %w", err)
	}
	return nil
}

func (s *PlanningService) GetDraft(ctx context.Context, productID string) (*PlanningDraft, error) {
	var draft PlanningDraft
	err := cache.GetJSON(ctx, s.cache, draftKey(productID), &draft)
	if errors.Is(err, cache.ErrMiss) {
		return nil, fmt.Errorf("planning draft for product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load planning draft: %w", err)
	}
	return &draft, nil
}

func (s *PlanningService) DeleteDraft(ctx context.Context, productID string) error {
	if err := s.cache.Del(ctx, draftKey(productID)); err != nil {
		return fmt.Errorf("delete planning draft: %w", err)
	}
	return nil
}

// discardDraft drops the draft after production started; a failure only
// leaves a stale draft behind.
func (s *PlanningService) discardDraft(ctx context.Context, productID string) {
	if err := s.DeleteDraft(ctx, productID); err != nil {
		s.logger.Warn("failed to delete planning draft", zap.String("product_id", productID), zap.Error(err))
	}
}

type AddMaterialsRequest struct {
	MaterialIDs []string `json:"material_ids" binding:"required,min=1"`
}

// AddMaterialsToProduction moves materials of the draft from the
// requirement list into the consumed list and writes their per-SQM
// quantities back onto the product recipe. Materials already consumed are
// left alone.
func (s *PlanningService) AddMaterialsToProduction(ctx context.Context, productID string, req AddMaterialsRequest, userID string) (*PlanningDraft, error) {
	draft, err := s.GetDraft(ctx, productID)
	if err != nil {
		return nil, err
	}
	ids := uniqueIDs(req.MaterialIDs)

	known := make(map[string]bool, len(draft.Requirements)+len(draft.Consumed))
	for _, r := range draft.Requirements {
		known[r.MaterialID] = true
	}
	for _, c := range draft.Consumed {
		known[c.MaterialID] = true
	}
	verr := &ValidationError{Message: "unknown materials"}
	for _, id := range ids {
		if !known[id] {
			verr.Add(ValidationDetail{ID: id, Fields: []string{"material_ids"}, Message: fmt.Sprintf("material %s is not part of the plan", id)})
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	remaining, consumed, moved := calc.MoveToConsumed(draft.Requirements, draft.Consumed, ids)
	draft.Requirements = remaining
	draft.Consumed = consumed

	if len(moved) > 0 {
		product, err := s.repos.Product.GetByID(ctx, productID)
		if err != nil {
			return nil, lookup(err, "product %s", productID)
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.recipe.mergeRequirements(ctx, s.repos.WithTx(tx), product, moved, userID)
		})
		if err != nil {
			return nil, fmt.Errorf("save recipe quantities: %w", err)
		}
	}
	if err := s.store(ctx, draft, userID); err != nil {
		return nil, err
	}
	return draft, nil
}

func dedupeRequirements(in []calc.MaterialRequirement) []calc.MaterialRequirement {
	seen := make(map[string]bool, len(in))
	out := make([]calc.MaterialRequirement, 0, len(in))
	for _, r := range in {
		if r.MaterialID == "" || seen[r.MaterialID] {
			continue
		}
		seen[r.MaterialID] = true
		if r.MaterialType == "" {
			r.MaterialType = calc.MaterialTypeRaw
		}
		out = append(out, r)
	}
	return out
}
