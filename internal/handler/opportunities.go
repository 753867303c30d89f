package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"optionstracker/internal/repository"
)

type OpportunityHandler struct {
	Repo repository.Repository
}

func (h *OpportunityHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/opportunities")
	group.GET("", h.list)
}

// @Summary List scored opportunities
// @Tags opportunities
// @Param active query bool false "Filter by active flag"
// @Param type query string false "Opportunity type"
// @Param symbol_id query int false "Symbol id"
// @Param min_score query number false "Minimum score"
// @Param sort_by query string false "score | timestamp"
// @Param order query string false "asc | desc"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/opportunities [get]
func (h *OpportunityHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	active := boolQueryPtr(c, "active")
	typ := strQueryPtr(c, "type")
	symbolID := uintQueryPtr(c, "symbol_id")
	minScore := floatQueryPtr(c, "min_score")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"score":     "score",
		"timestamp": "timestamp",
	})
	if orderBy == "" {
		orderBy = "score"
	}
	asc := strings.EqualFold(c.Query("order"), "asc")

	params := repository.ListOpportunitiesParams{
		Limit:    limit,
		Offset:   offset,
		Active:   active,
		Type:     typ,
		SymbolID: symbolID,
		MinScore: minScore,
		OrderBy:  orderBy,
		Asc:      boolPtr(asc),
	}
	items, err := h.Repo.ListOpportunities(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountOpportunities(c.Request.Context(), repository.ListOpportunitiesParams{
		Active:   active,
		Type:     typ,
		SymbolID: symbolID,
		MinScore: minScore,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}
