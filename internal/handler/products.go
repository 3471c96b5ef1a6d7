package handler

import (
	"net/http"

	"pharmazine/internal/apierror"
	"pharmazine/internal/dto"
	"pharmazine/internal/model"
	"pharmazine/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductsHandler serves the simple product CRUD used to seed and refresh
// the ledger's product catalog. Stock quantity on a product is read-only
// here — it is the ledger's derived cache.
type ProductsHandler struct{ repo repository.ProductRepository }

func NewProductsHandler(repo repository.ProductRepository) *ProductsHandler {
	return &ProductsHandler{repo: repo}
}

// ListProducts godoc
// @Summary      List products
// @Produce      json
// @Param        sku    query string false "Exact SKU"
// @Param        name   query string false "Name substring"
// @Param        active query string false "true (default) | false | all"
// @Success      200 {object} dto.ProductListResponse
// @Router       /v1/products [get]
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	products, total, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list products"))
		return
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, productToResponse(&products[i]))
	}
	c.JSON(http.StatusOK, dto.ProductListResponse{
		Data: items, Total: total, Page: filter.Page, Limit: filter.Limit,
	})
}

// CreateProduct godoc
// @Summary      Create a product
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateProductRequest true "Product"
// @Success      201 {object} dto.ProductResponse
// @Router       /v1/products [post]
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p := &model.Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		UnitPrice:    req.UnitPrice,
		CostPrice:    req.CostPrice,
		ReorderLevel: req.ReorderLevel,
		Active:       true,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("failed to create product: duplicate SKU?"))
		return
	}
	c.JSON(http.StatusCreated, productToResponse(p))
}

// GetProduct godoc
// @Summary      Get one product
// @Produce      json
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.ProductResponse
// @Router       /v1/products/{id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	p, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("product not found"))
		return
	}
	c.JSON(http.StatusOK, productToResponse(p))
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		UnitPrice:     p.UnitPrice,
		CostPrice:     p.CostPrice,
		StockQuantity: p.StockQuantity,
		ReorderLevel:  p.ReorderLevel,
		Active:        p.Active,
	}
}
