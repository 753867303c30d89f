package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"optionstracker/internal/repository"
)

type AnalysisHandler struct {
	Repo repository.Repository
}

func (h *AnalysisHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/symbols")
	group.GET("/:ticker/analysis", h.latestAnalysis)
	group.GET("/:ticker/bars", h.recentBars)
	r.GET("/api/v1/refresh-runs", h.refreshRuns)
}

// @Summary Latest volatility analysis for a symbol
// @Tags analysis
// @Param ticker path string true "Ticker"
// @Success 200 {object} apiResponse
// @Router /api/v1/symbols/{ticker}/analysis [get]
func (h *AnalysisHandler) latestAnalysis(c *gin.Context) {
	sym, ok := h.lookupSymbol(c)
	if !ok {
		return
	}
	analysis, err := h.Repo.LatestAnalysis(c.Request.Context(), sym)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if analysis == nil {
		Error(c, http.StatusNotFound, "no analysis recorded yet", nil)
		return
	}
	Ok(c, analysis, nil)
}

// @Summary Recent daily bars for a symbol
// @Tags analysis
// @Param ticker path string true "Ticker"
// @Param limit query int false "Number of bars, newest last"
// @Success 200 {object} apiResponse
// @Router /api/v1/symbols/{ticker}/bars [get]
func (h *AnalysisHandler) recentBars(c *gin.Context) {
	sym, ok := h.lookupSymbol(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 60)
	bars, err := h.Repo.ListRecentBars(c.Request.Context(), sym, limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, bars, map[string]any{"count": len(bars)})
}

// @Summary Recent refresh run summaries
// @Tags analysis
// @Param limit query int false "Number of runs"
// @Success 200 {object} apiResponse
// @Router /api/v1/refresh-runs [get]
func (h *AnalysisHandler) refreshRuns(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 20)
	runs, err := h.Repo.ListRefreshRuns(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, runs, map[string]any{"count": len(runs)})
}

// lookupSymbol resolves :ticker to a symbol id, writing the error response
// itself when the symbol is unknown.
func (h *AnalysisHandler) lookupSymbol(c *gin.Context) (uint64, bool) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return 0, false
	}
	ticker := strings.TrimSpace(c.Param("ticker"))
	if ticker == "" {
		Error(c, http.StatusBadRequest, "ticker required", nil)
		return 0, false
	}
	sym, err := h.Repo.GetSymbolByTicker(c.Request.Context(), ticker)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return 0, false
	}
	if sym == nil {
		Error(c, http.StatusNotFound, "symbol not tracked", nil)
		return 0, false
	}
	return sym.ID, true
}
