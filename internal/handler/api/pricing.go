package api

import (
	"net/http"
	"time"

	"studio-booking/internal/domain/pricing"
	reqdto "studio-booking/internal/handler/dto/request"
	resdto "studio-booking/internal/handler/dto/response"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PricingHandler serves quotes and the admin catalog endpoints.
type PricingHandler struct {
	quoter     queries.PriceQuoter
	catalog    commands.CatalogCommands
	tables     queries.CatalogQueries
	retryAfter time.Duration
}

func NewPricingHandler(quoter queries.PriceQuoter, catalog commands.CatalogCommands, tables queries.CatalogQueries, retryAfter time.Duration) *PricingHandler {
	return &PricingHandler{
		quoter:     quoter,
		catalog:    catalog,
		tables:     tables,
		retryAfter: retryAfter,
	}
}

// @Summary Quote a time window
// @Description Prices a window without reserving anything.
// @Tags prices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.QuoteRequest true "Quote request"
// @Success 200 {object} resdto.QuoteResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /prices/quote [post]
func (h *PricingHandler) Quote(c *gin.Context) {
	var req reqdto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err, "Invalid request format")
		return
	}

	q, err := h.quoter.Quote(c.Request.Context(), req.ToQuery())
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	c.JSON(http.StatusOK, resdto.FromQuote(q))
}

// @Summary Create or replace a price table
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Price table ID"
// @Param request body reqdto.PutPriceTableRequest true "Price table"
// @Success 200 {object} resdto.PriceTableResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /admin/price-tables/{id} [put]
func (h *PricingHandler) PutTable(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req reqdto.PutPriceTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err, "Invalid request format")
		return
	}
	params, err := req.ToParams(id)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}

	t, err := h.catalog.UpsertTable(c.Request.Context(), params)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	render(c, t, resdto.FromPriceTable)
}

// @Summary Create or replace a price item
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Price item ID"
// @Param request body reqdto.PutPriceItemRequest true "Price item"
// @Success 200 {object} resdto.PriceItemResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /admin/price-items/{id} [put]
func (h *PricingHandler) PutItem(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req reqdto.PutPriceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err, "Invalid request format")
		return
	}

	item, err := h.catalog.UpsertItem(c.Request.Context(), req.ToCommand(id))
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	render(c, item, resdto.FromPriceItem)
}

// @Summary Create or replace a price rule
// @Description Rules that would make the winner for some minute ambiguous are rejected.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Price rule ID"
// @Param request body reqdto.PutPriceRuleRequest true "Price rule"
// @Success 200 {object} resdto.PriceRuleResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /admin/price-rules/{id} [put]
func (h *PricingHandler) PutRule(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req reqdto.PutPriceRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err, "Invalid request format")
		return
	}
	params, err := req.ToParams(id)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}

	rule, err := h.catalog.UpsertRule(c.Request.Context(), params)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	render(c, rule, resdto.FromPriceRule)
}

// @Summary List price tables covering a date
// @Description Tables in resolution order, the first ACTIVE one wins.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param studioTypeId query string true "Studio type ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {array} resdto.PriceTableResponse
// @Failure 400 {object} httperr.Response
// @Router /admin/price-tables [get]
func (h *PricingHandler) ListTables(c *gin.Context) {
	var q reqdto.ListPriceTablesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortBadRequest(c, err, "Invalid query parameters")
		return
	}
	studioTypeID, err := uuid.Parse(q.StudioTypeID)
	if err != nil {
		abortBadRequest(c, err, "Invalid studio type ID format")
		return
	}
	date, err := pricing.ParseDate(q.Date)
	if err != nil {
		abortBadRequest(c, err, "Invalid date")
		return
	}

	tables, err := h.tables.FindTablesCovering(c.Request.Context(), studioTypeID, date)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	render(c, tables, resdto.FromPriceTables)
}

func (h *PricingHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortBadRequest(c, err, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

func render[T, R any](c *gin.Context, v T, conv func(T) (R, error)) {
	resp, err := conv(v)
	if err != nil {
		abortWithDomainError(c, err, 0)
		return
	}
	c.JSON(http.StatusOK, resp)
}
