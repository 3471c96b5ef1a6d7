package handler

import (
	"net/http"

	"pharmazine/internal/apierror"
	"pharmazine/internal/dto"
	"pharmazine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// CommitSale godoc
// @Summary      Commit a sale
// @Description  Settles a cart atomically: re-allocates every line under FEFO, reserves batch stock, creates the sale with item snapshots. All-or-nothing.
// @Accept       json
// @Produce      json
// @Param        body body dto.CommitSaleRequest true "Cart detail"
// @Success      201 {object} dto.SaleResponse
// @Failure      400 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) CommitSale(c *gin.Context) {
	var req dto.CommitSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CommitSale(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetSale godoc
// @Summary      Fetch one sale
// @Produce      json
// @Param        id path string true "Sale UUID"
// @Success      200 {object} dto.SaleResponse
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) GetSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("sale not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSales godoc
// @Summary      List sales
// @Produce      json
// @Param        date  query string false "Date YYYY-MM-DD (default today)"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.SaleListResponse
// @Router       /v1/sales [get]
func (h *SalesHandler) ListSales(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list sales"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
