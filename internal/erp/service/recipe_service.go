package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RecipeService struct {
	repos  *repository.Repositories
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecipeService(repos *repository.Repositories, db *gorm.DB, opts Options) *RecipeService {
	return &RecipeService{repos: repos, db: db, logger: opts.Logger}
}

type RecipeMaterialInput struct {
	MaterialID     string  `json:"material_id" binding:"required"`
	MaterialType   string  `json:"material_type" binding:"required,oneof=raw_material product"`
	QuantityPerSQM float64 `json:"quantity_per_sqm"`
}

type SaveRecipeRequest struct {
	Notes     string                `json:"notes"`
	Materials []RecipeMaterialInput `json:"materials" binding:"dive"`
}

func (s *RecipeService) GetByProduct(ctx context.Context, productID string) (*entity.Recipe, error) {
	recipe, err := s.repos.Recipe.GetByProductID(ctx, productID)
	if err != nil {
		return nil, lookup(err, "recipe for product %s", productID)
	}
	return recipe, nil
}

// Save replaces the recipe of a product. A product-type material without a
// quantity gets one derived from the two products' areas.
func (s *RecipeService) Save(ctx context.Context, productID string, req SaveRecipeRequest, userID string) (*entity.Recipe, error) {
	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, lookup(err, "product %s", productID)
	}

	verr := &ValidationError{Message: "invalid recipe"}
	seen := make(map[string]bool, len(req.Materials))
	materials := make([]entity.RecipeMaterial, 0, len(req.Materials))
	for i, in := range req.Materials {
		row := i + 1
		if seen[in.MaterialID] {
			verr.Add(ValidationDetail{Row: row, ID: in.MaterialID, Fields: []string{"material_id"}, Message: fmt.Sprintf("row %d: material listed twice", row)})
			continue
		}
		seen[in.MaterialID] = true
		if in.MaterialType == calc.MaterialTypeProduct && in.MaterialID == product.ID {
			verr.Add(ValidationDetail{Row: row, ID: in.MaterialID, Fields: []string{"material_id"}, Message: fmt.Sprintf("row %d: a product cannot consume itself", row)})
			continue
		}

		m, err := s.resolveMaterial(ctx, s.repos, product, in)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				verr.Add(ValidationDetail{Row: row, ID: in.MaterialID, Fields: []string{"material_id"}, Message: fmt.Sprintf("row %d: %v", row, err)})
				continue
			}
			return nil, err
		}
		if !calc.IsUsable(m.QuantityPerSQM) {
			verr.Add(ValidationDetail{Row: row, ID: in.MaterialID, Fields: []string{"quantity_per_sqm"}, Message: fmt.Sprintf("row %d: quantity per sqm is required for %s", row, m.MaterialName)})
			continue
		}
		m.SortOrder = i
		materials = append(materials, *m)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		recipe, created, err := s.ensureRecipe(ctx, repos, product, userID)
		if err != nil {
			return err
		}
		recipe.Notes = req.Notes
		recipe.UpdatedBy = userID
		if !created {
			recipe.Version++
		}
		if err := repos.Recipe.Update(ctx, recipe); err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		for i := range materials {
			materials[i].ID = uuid.New().String()
			materials[i].RecipeID = recipe.ID
		}
		if err := repos.Recipe.ReplaceMaterials(ctx, recipe.ID, materials); err != nil {
			return fmt.Errorf("save recipe materials: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByProduct(ctx, productID)
}

func (s *RecipeService) Delete(ctx context.Context, productID string) error {
	recipe, err := s.repos.Recipe.GetByProductID(ctx, productID)
	if err != nil {
		return lookup(err, "recipe for product %s", productID)
	}
	return s.repos.Recipe.Delete(ctx, recipe.ID)
}

// resolveMaterial fills name, unit and cost of a recipe row from the
// referenced raw material or product.
func (s *RecipeService) resolveMaterial(ctx context.Context, repos *repository.Repositories, parent *entity.Product, in RecipeMaterialInput) (*entity.RecipeMaterial, error) {
	m := &entity.RecipeMaterial{
		MaterialID:     in.MaterialID,
		MaterialType:   in.MaterialType,
		QuantityPerSQM: in.QuantityPerSQM,
	}
	switch in.MaterialType {
	case calc.MaterialTypeProduct:
		child, err := repos.Product.GetByID(ctx, in.MaterialID)
		if err != nil {
			return nil, lookup(err, "product %s", in.MaterialID)
		}
		m.MaterialName = child.Name
		m.Unit = child.Unit
		if !calc.IsUsable(m.QuantityPerSQM) {
			if q, ok := calc.AutoQuantity(parent.SQM(), child.SQM()); ok {
				m.QuantityPerSQM = calc.RoundTo(q, 6)
			}
		}
	default:
		raw, err := repos.RawMaterial.GetByID(ctx, in.MaterialID)
		if err != nil {
			return nil, lookup(err, "raw material %s", in.MaterialID)
		}
		m.MaterialType = calc.MaterialTypeRaw
		m.MaterialName = raw.Name
		m.Unit = raw.Unit
		m.CostPerUnit = raw.CostPerUnit
	}
	return m, nil
}

func (s *RecipeService) ensureRecipe(ctx context.Context, repos *repository.Repositories, product *entity.Product, userID string) (*entity.Recipe, bool, error) {
	recipe, err := repos.Recipe.GetByProductID(ctx, product.ID)
	if err == nil {
		return recipe, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("load recipe: %w", err)
	}
	recipe = &entity.Recipe{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		ProductName: product.Name,
		Version:     1,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}
	if err := repos.Recipe.Create(ctx, recipe); err != nil {
		return nil, false, fmt.Errorf("create recipe: %w", err)
	}
	return recipe, true, nil
}

// mergeRequirements writes the per-SQM quantities of planned materials back
// onto the product recipe, adding rows the recipe did not have yet.
func (s *RecipeService) mergeRequirements(ctx context.Context, repos *repository.Repositories, product *entity.Product, items []calc.MaterialRequirement, userID string) error {
	if len(items) == 0 {
		return nil
	}
	recipe, created, err := s.ensureRecipe(ctx, repos, product, userID)
	if err != nil {
		return err
	}
	existing := make(map[string]*entity.RecipeMaterial, len(recipe.Materials))
	for i := range recipe.Materials {
		existing[recipe.Materials[i].MaterialID] = &recipe.Materials[i]
	}

	changed := false
	next := len(recipe.Materials)
	for _, it := range items {
		if !calc.IsUsable(it.QuantityPerSQM) {
			continue
		}
		if m, ok := existing[it.MaterialID]; ok {
			if math.Abs(m.QuantityPerSQM-it.QuantityPerSQM) < 1e-9 {
				continue
			}
			m.QuantityPerSQM = it.QuantityPerSQM
			if err := repos.Recipe.UpdateMaterial(ctx, m); err != nil {
				return fmt.Errorf("update recipe material: %w", err)
			}
			changed = true
			continue
		}
		m := &entity.RecipeMaterial{
			ID:             uuid.New().String(),
			RecipeID:       recipe.ID,
			MaterialID:     it.MaterialID,
			MaterialName:   it.MaterialName,
			MaterialType:   it.MaterialType,
			QuantityPerSQM: it.QuantityPerSQM,
			Unit:           it.Unit,
			CostPerUnit:    it.CostPerUnit,
			SortOrder:      next,
		}
		next++
		if err := repos.Recipe.CreateMaterial(ctx, m); err != nil {
			return fmt.Errorf("add recipe material: %w", err)
		}
		changed = true
	}
	if !changed || created {
		return nil
	}
	recipe.Version++
	recipe.UpdatedBy = userID
	return repos.Recipe.Update(ctx, recipe)
}
