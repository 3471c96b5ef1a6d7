package handler

import (
	"net/http"
	"strconv"
	"time"

	"pharmazine/internal/apierror"
	"pharmazine/internal/dto"
	"pharmazine/internal/model"
	"pharmazine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BatchesHandler struct {
	ledger    service.LedgerService
	allocator service.Allocator
}

func NewBatchesHandler(ledger service.LedgerService, allocator service.Allocator) *BatchesHandler {
	return &BatchesHandler{ledger: ledger, allocator: allocator}
}

// ReceiveBatch godoc
// @Summary      Receive a goods receipt batch
// @Description  Creates a stock batch (GRN) and refreshes the product's aggregate stock.
// @Accept       json
// @Produce      json
// @Param        body body dto.ReceiveBatchRequest true "Batch detail"
// @Success      201 {object} dto.BatchResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/batches [post]
func (h *BatchesHandler) ReceiveBatch(c *gin.Context) {
	var req dto.ReceiveBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	batch, err := h.ledger.ReceiveBatch(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batchToResponse(batch))
}

// ListBatches godoc
// @Summary      List a product's batches
// @Description  With eligible=true returns only sellable batches in FEFO order.
// @Produce      json
// @Param        id       path  string true  "Product UUID"
// @Param        eligible query bool   false "Only sellable batches"
// @Success      200 {array} dto.BatchResponse
// @Router       /v1/products/{id}/batches [get]
func (h *BatchesHandler) ListBatches(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	var batches []model.Batch
	if c.Query("eligible") == "true" {
		batches, err = h.ledger.ListEligibleBatches(c.Request.Context(), productID)
	} else {
		batches, err = h.ledger.ListBatches(c.Request.Context(), productID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list batches"))
		return
	}
	resp := make([]dto.BatchResponse, 0, len(batches))
	for i := range batches {
		resp = append(resp, batchToResponse(&batches[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// WriteOff godoc
// @Summary      Write off waste/damage stock from a batch
// @Accept       json
// @Produce      json
// @Param        id   path string              true "Batch UUID"
// @Param        body body dto.WriteOffRequest true "Quantity and reason"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/batches/{id}/write-off [post]
func (h *BatchesHandler) WriteOff(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid batch id"))
		return
	}
	var req dto.WriteOffRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.ledger.WriteOff(c.Request.Context(), batchID, req.Quantity, req.Reason); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PreviewAllocation godoc
// @Summary      Preview the FEFO allocation plan for a quantity
// @Description  Read-only: shows which batches checkout would draw from. Nothing is reserved.
// @Produce      json
// @Param        id  path  string true "Product UUID"
// @Param        qty query int    true "Requested quantity"
// @Success      200 {object} dto.AllocationResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/products/{id}/allocation [get]
func (h *BatchesHandler) PreviewAllocation(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	qty, err := strconv.Atoi(c.Query("qty"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid qty"))
		return
	}
	plan, err := h.allocator.Allocate(c.Request.Context(), productID, qty)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	entries := make([]dto.AllocationEntry, 0, len(plan))
	for _, a := range plan {
		entries = append(entries, dto.AllocationEntry{
			BatchID:           a.Batch.ID.String(),
			BatchNumber:       a.Batch.BatchNumber,
			ExpiryDate:        a.Batch.ExpiryDate.Format("2006-01-02"),
			Quantity:          a.Quantity,
			UnitPrice:         a.Batch.SellingPrice,
			QuantityRemaining: a.Batch.QuantityRemaining,
		})
	}
	c.JSON(http.StatusOK, dto.AllocationResponse{
		ProductID: productID.String(),
		Requested: qty,
		Plan:      entries,
	})
}

// ExpiryAlerts godoc
// @Summary      Batches expiring soon
// @Produce      json
// @Param        days query int false "Window in days (default from config)"
// @Success      200 {array} dto.ExpiryAlert
// @Router       /v1/alerts/expiry [get]
func (h *BatchesHandler) ExpiryAlerts(defaultDays int) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := defaultDays
		if v := c.Query("days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				days = n
			}
		}
		alerts, err := h.ledger.ExpiringBatches(c.Request.Context(), days)
		if err != nil {
			c.JSON(http.StatusInternalServerError, apierror.New("failed to compute expiry alerts"))
			return
		}
		c.JSON(http.StatusOK, alerts)
	}
}

// LowStockAlerts godoc
// @Summary      Products at or below their reorder level
// @Produce      json
// @Success      200 {array} dto.LowStockAlert
// @Router       /v1/alerts/low-stock [get]
func (h *BatchesHandler) LowStockAlerts(c *gin.Context) {
	alerts, err := h.ledger.LowStockProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to compute low stock alerts"))
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func batchToResponse(b *model.Batch) dto.BatchResponse {
	var manufacture *string
	if b.ManufactureDate != nil {
		m := b.ManufactureDate.Format("2006-01-02")
		manufacture = &m
	}
	return dto.BatchResponse{
		ID:                b.ID.String(),
		ProductID:         b.ProductID.String(),
		BatchNumber:       b.BatchNumber,
		ExpiryDate:        b.ExpiryDate.Format("2006-01-02"),
		ManufactureDate:   manufacture,
		QuantityReceived:  b.QuantityReceived,
		QuantityRemaining: b.QuantityRemaining,
		QuantitySold:      b.QuantitySold,
		PurchasePrice:     b.PurchasePrice,
		SellingPrice:      b.SellingPrice,
		MRP:               b.MRP,
		Expired:           b.Expired(time.Now()),
	}
}
