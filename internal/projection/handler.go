package projection

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
)

// RegisterRoutes registers the metrics query routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/metrics/:app_id", s.HandleQueryMetrics)
}

// HandleQueryMetrics handles GET /v1/metrics/:app_id?start=YYYY-MM-DD&end=YYYY-MM-DD
func (s *Service) HandleQueryMetrics(c *gin.Context) {
	var uri struct {
		AppID string `uri:"app_id" binding:"required"`
	}
	var query struct {
		Start string `form:"start" binding:"required"`
		End   string `form:"end" binding:"required"`
	}

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}

	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.QueryMetrics(c.Request.Context(), MetricsQueryRequest{
		AppID: uri.AppID,
		Start: query.Start,
		End:   query.End,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidQueryError,
				Message:   "Invalid metrics query",
				Details:   err.Error(),
			})
			return
		}

		slog.Error("[Projection] Query failed", "app_id", uri.AppID, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to query metrics",
			Details:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
