package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"optionstracker/internal/service"
)

type WatchlistHandler struct {
	Service *service.WatchlistService
}

func (h *WatchlistHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/watchlist")
	group.GET("", h.list)
	group.POST("", h.add)
	group.DELETE("/:ticker", h.remove)
}

// @Summary List watchlist symbols
// @Tags watchlist
// @Param include_inactive query bool false "Include removed symbols"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist [get]
func (h *WatchlistHandler) list(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "watchlist service unavailable", nil)
		return
	}
	includeInactive := boolQueryDefault(c, "include_inactive", false)
	items, err := h.Service.List(c.Request.Context(), includeInactive)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

type addSymbolRequest struct {
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	Sector      *string `json:"sector"`
}

// @Summary Add a symbol to the watchlist
// @Tags watchlist
// @Accept json
// @Param request body addSymbolRequest true "Symbol to track"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist [post]
func (h *WatchlistHandler) add(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "watchlist service unavailable", nil)
		return
	}
	var req addSymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid payload: "+err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		Error(c, http.StatusBadRequest, "ticker required", nil)
		return
	}
	sym, err := h.Service.Add(c.Request.Context(), req.Ticker, req.CompanyName, req.Sector)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, sym, nil)
}

// @Summary Remove a symbol from the watchlist
// @Tags watchlist
// @Param ticker path string true "Ticker"
// @Success 200 {object} apiResponse
// @Router /api/v1/watchlist/{ticker} [delete]
func (h *WatchlistHandler) remove(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "watchlist service unavailable", nil)
		return
	}
	ticker := strings.TrimSpace(c.Param("ticker"))
	if ticker == "" {
		Error(c, http.StatusBadRequest, "ticker required", nil)
		return
	}
	if err := h.Service.Remove(c.Request.Context(), ticker); err != nil {
		Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"ticker": strings.ToUpper(ticker), "active": false}, nil)
}
