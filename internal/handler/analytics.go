package handler

import (
	"net/http"

	"pharmazine/internal/apierror"
	"pharmazine/internal/dto"
	"pharmazine/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct{ svc service.AnalyticsService }

func NewAnalyticsHandler(svc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// ABCClassification godoc
// @Summary      ABC revenue classification
// @Description  Pareto ranking of products by revenue over the lookback window. Advisory; served from cache when fresh.
// @Produce      json
// @Param        days query int false "Lookback window in days (default 30)"
// @Success      200 {object} dto.ABCResponse
// @Router       /v1/analytics/abc [get]
func (h *AnalyticsHandler) ABCClassification(c *gin.Context) {
	var filter dto.ABCFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Classify(c.Request.Context(), filter.Days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to compute classification"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
