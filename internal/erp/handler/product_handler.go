package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

const maxImageSize = 10 << 20

type ProductHandler struct {
	svc    *service.ProductService
	recipe *service.RecipeService
}

func NewProductHandler(svc *service.ProductService, recipe *service.RecipeService) *ProductHandler {
	return &ProductHandler{svc: svc, recipe: recipe}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	product, err := h.svc.Create(c.Request.Context(), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, product)
}

func (h *ProductHandler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, view)
}

func (h *ProductHandler) List(c *gin.Context) {
	page, size := pagination(c)
	params := repository.ProductListParams{
		Category:      c.Query("category"),
		Status:        c.Query("status"),
		StockTracking: c.Query("stock_tracking"),
		Keyword:       c.Query("keyword"),
		Page:          page,
		Size:          size,
	}
	products, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, products, total, page, size)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	product, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

// UploadImage POST /products/:id/image (multipart field "file")
func (h *ProductHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		bindError(c, err)
		return
	}
	if file.Size > maxImageSize {
		fail(c, &service.ValidationError{Message: "image exceeds 10MB"})
		return
	}
	src, err := file.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer src.Close()

	product, err := h.svc.UploadImage(c.Request.Context(), c.Param("id"), file.Filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, product)
}

// --- Recipe ---

func (h *ProductHandler) GetRecipe(c *gin.Context) {
	recipe, err := h.recipe.GetByProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, recipe)
}

func (h *ProductHandler) SaveRecipe(c *gin.Context) {
	var req service.SaveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	recipe, err := h.recipe.Save(c.Request.Context(), c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, recipe)
}

func (h *ProductHandler) DeleteRecipe(c *gin.Context) {
	if err := h.recipe.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

// --- Individual products ---

func (h *ProductHandler) ListIndividual(c *gin.Context) {
	page, size := pagination(c)
	params := repository.IndividualProductListParams{
		ProductID: c.Query("product_id"),
		BatchID:   c.Query("batch_id"),
		Status:    c.Query("status"),
		Keyword:   c.Query("keyword"),
		Page:      page,
		Size:      size,
	}
	if id := c.Param("id"); id != "" {
		params.ProductID = id
	}
	units, total, err := h.svc.ListIndividualProducts(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	list(c, units, total, page, size)
}

func (h *ProductHandler) GetIndividual(c *gin.Context) {
	unit, err := h.svc.GetIndividualProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, unit)
}

func (h *ProductHandler) UpdateIndividual(c *gin.Context) {
	var req service.UpdateIndividualProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	unit, err := h.svc.UpdateIndividualProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, unit)
}
