package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"optionstracker/internal/scheduler"
)

type JobHandler struct {
	Scheduler *scheduler.Scheduler
}

func (h *JobHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/jobs")
	group.POST("/refresh", h.refresh)
	group.POST("/scan", h.scan)
	group.GET("/status", h.status)
}

type refreshRequest struct {
	Ticker string `json:"ticker"`
}

// @Summary Trigger a refresh, full watchlist or one ticker
// @Tags jobs
// @Accept json
// @Param request body refreshRequest false "Optional single ticker"
// @Success 200 {object} apiResponse
// @Router /api/v1/jobs/refresh [post]
func (h *JobHandler) refresh(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	var req refreshRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
			return
		}
	}
	ctx := c.Request.Context()
	if ticker := strings.TrimSpace(req.Ticker); ticker != "" {
		res, err := h.Scheduler.RefreshSymbol(ctx, ticker)
		if err != nil {
			Error(c, http.StatusConflict, err.Error(), nil)
			return
		}
		Ok(c, res, nil)
		return
	}
	results, err := h.Scheduler.RefreshAll(ctx)
	if err != nil {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	Ok(c, results, map[string]any{"symbols": len(results)})
}

// @Summary Rescan stored data for opportunities
// @Tags jobs
// @Success 200 {object} apiResponse
// @Router /api/v1/jobs/scan [post]
func (h *JobHandler) scan(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	opps, err := h.Scheduler.ScanOpportunities(c.Request.Context())
	if err != nil {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	Ok(c, opps, map[string]any{"count": len(opps)})
}

// @Summary Scheduler job status
// @Tags jobs
// @Success 200 {object} apiResponse
// @Router /api/v1/jobs/status [get]
func (h *JobHandler) status(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	Ok(c, h.Scheduler.Status(), nil)
}
