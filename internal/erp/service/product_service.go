package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProductService struct {
	repos  *repository.Repositories
	db     *gorm.DB
	images ImageStore
	cache  cache.Store
	logger *zap.Logger
}

func NewProductService(repos *repository.Repositories, db *gorm.DB, opts Options) *ProductService {
	return &ProductService{repos: repos, db: db, images: opts.Images, cache: opts.Cache, logger: opts.Logger}
}

type ProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	ProductCode   string  `json:"product_code"`
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory"`
	Color         string  `json:"color"`
	Pattern       string  `json:"pattern"`
	Length        float64 `json:"length" binding:"gte=0"`
	Width         float64 `json:"width" binding:"gte=0"`
	LengthUnit    string  `json:"length_unit"`
	WidthUnit     string  `json:"width_unit"`
	Weight        float64 `json:"weight" binding:"gte=0"`
	WeightUnit    string  `json:"weight_unit"`
	Unit          string  `json:"unit"`
	StockTracking string  `json:"stock_tracking"`
	CurrentStock  float64 `json:"current_stock" binding:"gte=0"`
	MinStockLevel float64 `json:"min_stock_level" binding:"gte=0"`
	MaxStockLevel float64 `json:"max_stock_level" binding:"gte=0"`
	ReorderPoint  float64 `json:"reorder_point" binding:"gte=0"`
	Notes         string  `json:"notes"`
}

// ProductView a product with its area figures
type ProductView struct {
	entity.Product
	SQM        float64 `json:"sqm"`
	SqFt       float64 `json:"sq_ft"`
	Available  int64   `json:"available_units"`
	Reserved   int64   `json:"reserved_units"`
	HasRecipe  bool    `json:"has_recipe"`
	RecipeSize int     `json:"recipe_materials"`
}

func (s *ProductService) Create(ctx context.Context, req ProductRequest, userID string) (*entity.Product, error) {
	tracking := req.StockTracking
	if tracking == "" {
		tracking = entity.StockTrackingIndividual
	}
	if tracking != entity.StockTrackingIndividual && tracking != entity.StockTrackingBulk {
		return nil, invalid("stock_tracking must be %q or %q", entity.StockTrackingIndividual, entity.StockTrackingBulk)
	}
	if tracking == entity.StockTrackingIndividual && req.CurrentStock > 0 {
		return nil, invalid("individually tracked products get stock from production, current_stock must be 0")
	}
	code := req.ProductCode
	if code == "" {
		code = newCode("PRD")
	}
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	p := &entity.Product{
		ID:            uuid.New().String(),
		ProductCode:   code,
		StockTracking: tracking,
		CreatedBy:     userID,
	}
	applyProductRequest(p, req)
	p.Unit = unit
	p.RefreshStatus()

	if err := s.repos.Product.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return p, nil
}

func applyProductRequest(p *entity.Product, req ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Category = req.Category
	p.Subcategory = req.Subcategory
	p.Color = req.Color
	p.Pattern = req.Pattern
	p.Length = req.Length
	p.Width = req.Width
	p.LengthUnit = req.LengthUnit
	p.WidthUnit = req.WidthUnit
	p.Weight = req.Weight
	p.WeightUnit = req.WeightUnit
	p.CurrentStock = req.CurrentStock
	p.MinStockLevel = req.MinStockLevel
	p.MaxStockLevel = req.MaxStockLevel
	p.ReorderPoint = req.ReorderPoint
	p.Notes = req.Notes
	if req.Unit != "" {
		p.Unit = req.Unit
	}
}

func (s *ProductService) Get(ctx context.Context, id string) (*ProductView, error) {
	p, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "product %s", id)
	}
	view := &ProductView{Product: *p, SQM: calc.RoundTo(p.SQM(), 4)}
	view.SqFt = calc.RoundTo(calc.SQMToSqFt(p.SQM()), 4)

	if p.TracksIndividually() {
		if view.Available, err = s.repos.IndividualProduct.CountByStatus(ctx, p.ID, entity.IPStatusAvailable); err != nil {
			return nil, err
		}
		if view.Reserved, err = s.repos.IndividualProduct.CountByStatus(ctx, p.ID, entity.IPStatusReserved); err != nil {
			return nil, err
		}
	}

	recipe, err := s.repos.Recipe.GetByProductID(ctx, p.ID)
	switch {
	case err == nil:
		view.HasRecipe = true
		view.RecipeSize = len(recipe.Materials)
		view.Recipe = recipe
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return view, nil
}

func (s *ProductService) List(ctx context.Context, params repository.ProductListParams) ([]entity.Product, int64, error) {
	return s.repos.Product.List(ctx, params)
}

// Update edits the catalogue fields. Stock of individually tracked products
// is owned by their units and cannot be set here.
func (s *ProductService) Update(ctx context.Context, id string, req ProductRequest) (*entity.Product, error) {
	p, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "product %s", id)
	}
	stock := p.CurrentStock
	applyProductRequest(p, req)
	if p.TracksIndividually() {
		p.CurrentStock = stock
	}
	if req.ProductCode != "" {
		p.ProductCode = req.ProductCode
	}
	p.RefreshStatus()
	if err := s.repos.Product.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.repos.Product.GetByID(ctx, id); err != nil {
		return lookup(err, "product %s", id)
	}
	if err := s.repos.Product.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadImage stores the product picture and records its URL.
func (s *ProductService) UploadImage(ctx context.Context, id, fileName string, reader io.Reader, size int64, contentType string) (*entity.Product, error) {
	if s.images == nil {
		return nil, stateError("image storage is not configured")
	}
	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, invalid("unsupported image type %q", contentType)
	}
	if e := strings.ToLower(path.Ext(fileName)); e != "" {
		ext = e
	}
	p, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "product %s", id)
	}

	objectName := fmt.Sprintf("products/%s/%d%s", p.ID, time.Now().UnixNano(), ext)
	url, err := s.images.Upload(ctx, objectName, reader, size, contentType)
	if err != nil {
		return nil, err
	}
	p.ImageURL = url
	if err := s.repos.Product.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// ---- individual products ----

func (s *ProductService) ListIndividualProducts(ctx context.Context, params repository.IndividualProductListParams) ([]entity.IndividualProduct, int64, error) {
	return s.repos.IndividualProduct.List(ctx, params)
}

func (s *ProductService) GetIndividualProduct(ctx context.Context, id string) (*entity.IndividualProduct, error) {
	ip, err := s.repos.IndividualProduct.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "individual product %s", id)
	}
	return ip, nil
}

type UpdateIndividualProductRequest struct {
	Status        string `json:"status"`
	Location      string `json:"location"`
	QualityGrade  string `json:"quality_grade"`
	InspectorName string `json:"inspector_name"`
	Notes         string `json:"notes"`
}

// UpdateIndividualProduct edits a unit. Status may only move between
// available and damaged; reservations and sales go through their workflows.
func (s *ProductService) UpdateIndividualProduct(ctx context.Context, id string, req UpdateIndividualProductRequest) (*entity.IndividualProduct, error) {
	var out *entity.IndividualProduct
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		ip, err := repos.IndividualProduct.GetByID(ctx, id)
		if err != nil {
			return lookup(err, "individual product %s", id)
		}

		statusChanged := false
		if req.Status != "" && req.Status != ip.Status {
			movable := map[string]bool{entity.IPStatusAvailable: true, entity.IPStatusDamaged: true}
			if !movable[ip.Status] || !movable[req.Status] {
				return stateError("cannot change unit %s from %s to %s", ip.SerialNumber, ip.Status, req.Status)
			}
			ip.Status = req.Status
			statusChanged = true
		}
		if req.QualityGrade != "" {
			if !calc.ValidGrade(req.QualityGrade) {
				return invalid("invalid quality grade %q", req.QualityGrade)
			}
			ip.QualityGrade = req.QualityGrade
		}
		if req.Location != "" {
			ip.Location = req.Location
		}
		if req.InspectorName != "" {
			ip.InspectorName = req.InspectorName
		}
		if req.Notes != "" {
			ip.Notes = req.Notes
		}
		if err := repos.IndividualProduct.Update(ctx, ip); err != nil {
			return fmt.Errorf("update individual product: %w", err)
		}
		if statusChanged {
			if _, err := syncProductStock(ctx, repos, ip.ProductID, 0); err != nil {
				return err
			}
		}
		out = ip
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return out, nil
}
