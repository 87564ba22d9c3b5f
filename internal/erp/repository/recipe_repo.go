package repository

import (
	"context"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) GetByProductID(ctx context.Context, productID string) (*entity.Recipe, error) {
	var recipe entity.Recipe
	err := r.db.WithContext(ctx).
		Preload("Materials", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Where("product_id = ?", productID).First(&recipe).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &recipe, nil
}

func (r *RecipeRepository) Create(ctx context.Context, recipe *entity.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

func (r *RecipeRepository) Update(ctx context.Context, recipe *entity.Recipe) error {
	return r.db.WithContext(ctx).Omit("Materials").Save(recipe).Error
}

// ReplaceMaterials swaps the whole material list of a recipe.
func (r *RecipeRepository) ReplaceMaterials(ctx context.Context, recipeID string, materials []entity.RecipeMaterial) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&entity.RecipeMaterial{}).Error; err != nil {
		return err
	}
	if len(materials) == 0 {
		return nil
	}
	return db.Create(&materials).Error
}

func (r *RecipeRepository) UpdateMaterial(ctx context.Context, m *entity.RecipeMaterial) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *RecipeRepository) CreateMaterial(ctx context.Context, m *entity.RecipeMaterial) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *RecipeRepository) Delete(ctx context.Context, recipeID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&entity.RecipeMaterial{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", recipeID).Delete(&entity.Recipe{}).Error
	})
}
