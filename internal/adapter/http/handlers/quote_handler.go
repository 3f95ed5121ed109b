package handlers

import (
	"net/http"

	request "homequote/internal/adapter/http/dto/request"
	response "homequote/internal/adapter/http/dto/response"
	"homequote/internal/adapter/http/middleware"
	"homequote/internal/usecase"

	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	usecase usecase.IQuoteUseCase
}

func NewQuoteHandler(uc usecase.IQuoteUseCase) *QuoteHandler {
	return &QuoteHandler{usecase: uc}
}

// PriceLimits godoc
// @Summary  Oracle price limits a provider must bid within
// @Tags     quotes
// @Produce  json
// @Param    id path string true "Service request id"
// @Success  200 {object} response.PriceLimitsResponse
// @Failure  503 {object} pkg.HTTPError
// @Security Bearer
// @Router   /service-requests/{id}/price-limits [get]
func (h *QuoteHandler) PriceLimits(c *gin.Context) {
	limits, err := h.usecase.EstimatePriceLimits(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPriceRange(limits))
}

// Create godoc
// @Summary  Submit a quote for an open service request
// @Tags     quotes
// @Accept   json
// @Produce  json
// @Param    payload body request.CreateQuoteRequest true "Quote"
// @Success  201 {object} response.QuoteResponse
// @Failure  400 {object} pkg.HTTPError
// @Failure  409 {object} pkg.HTTPError
// @Failure  503 {object} pkg.HTTPError
// @Security Bearer
// @Router   /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	var payload request.CreateQuoteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidQuotePayload.HTTPStatus, errInvalidQuotePayload.ToHTTPError())
		return
	}

	created, err := h.usecase.Create(c.Request.Context(), payload.ToInput(middleware.UserID(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromQuote(created))
}

// ListMine godoc
// @Summary  List the caller's quotes, newest first
// @Tags     quotes
// @Produce  json
// @Success  200 {array} response.QuoteResponse
// @Security Bearer
// @Router   /quotes [get]
func (h *QuoteHandler) ListMine(c *gin.Context) {
	quotes, err := h.usecase.ListForProvider(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromProviderQuotes(quotes))
}

// ListForServiceRequest godoc
// @Summary  Compare the quotes on one of the caller's requests, cheapest first
// @Tags     quotes
// @Produce  json
// @Param    id path string true "Service request id"
// @Success  200 {array} response.QuoteOfferResponse
// @Security Bearer
// @Router   /service-requests/{id}/quotes [get]
func (h *QuoteHandler) ListForServiceRequest(c *gin.Context) {
	offers, err := h.usecase.ListForServiceRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromQuoteOffers(offers))
}

// Accept godoc
// @Summary  Accept a quote; siblings are rejected atomically
// @Tags     quotes
// @Produce  json
// @Param    id path string true "Quote id"
// @Success  200 {object} response.QuoteResponse
// @Failure  409 {object} pkg.HTTPError
// @Security Bearer
// @Router   /quotes/{id}/accept [patch]
func (h *QuoteHandler) Accept(c *gin.Context) {
	accepted, err := h.usecase.Accept(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromQuote(accepted))
}

// Complete godoc
// @Summary  Mark an accepted quote as completed
// @Tags     quotes
// @Produce  json
// @Param    id path string true "Quote id"
// @Success  200 {object} response.QuoteResponse
// @Failure  409 {object} pkg.HTTPError
// @Security Bearer
// @Router   /quotes/{id}/complete [patch]
func (h *QuoteHandler) Complete(c *gin.Context) {
	completed, err := h.usecase.MarkCompleted(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromQuote(completed))
}

// Delete godoc
// @Summary  Withdraw an awaiting quote
// @Tags     quotes
// @Param    id path string true "Quote id"
// @Success  204
// @Failure  409 {object} pkg.HTTPError
// @Security Bearer
// @Router   /quotes/{id} [delete]
func (h *QuoteHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
