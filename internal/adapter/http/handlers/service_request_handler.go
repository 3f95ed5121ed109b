package handlers

import (
	"net/http"

	request "homequote/internal/adapter/http/dto/request"
	response "homequote/internal/adapter/http/dto/response"
	"homequote/internal/adapter/http/middleware"
	"homequote/internal/usecase"

	"github.com/gin-gonic/gin"
)

// ServiceRequestHandler exposes the request lifecycle. Every route sits behind
// the auth middleware, so the caller id always comes from the token.
type ServiceRequestHandler struct {
	usecase usecase.IServiceRequestUseCase
}

func NewServiceRequestHandler(uc usecase.IServiceRequestUseCase) *ServiceRequestHandler {
	return &ServiceRequestHandler{usecase: uc}
}

// Create godoc
// @Summary  Open a service request
// @Tags     service-requests
// @Accept   json
// @Produce  json
// @Param    payload body request.CreateServiceRequestRequest true "Service request"
// @Success  201 {object} response.ServiceRequestResponse
// @Failure  400 {object} pkg.HTTPError
// @Security Bearer
// @Router   /service-requests [post]
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	var payload request.CreateServiceRequestRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidServiceRequestPayload.HTTPStatus, errInvalidServiceRequestPayload.ToHTTPError())
		return
	}

	created, err := h.usecase.Create(c.Request.Context(), payload.ToInput(middleware.UserID(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromServiceRequest(created))
}

// ListMine godoc
// @Summary  List the caller's service requests, newest first
// @Tags     service-requests
// @Produce  json
// @Success  200 {array} response.ServiceRequestResponse
// @Security Bearer
// @Router   /service-requests [get]
func (h *ServiceRequestHandler) ListMine(c *gin.Context) {
	listings, err := h.usecase.ListForClient(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromServiceRequestListings(listings))
}

// ListAvailable godoc
// @Summary  List open service requests providers can bid on
// @Tags     service-requests
// @Produce  json
// @Param    category query []string false "Categories (repeat or comma separated)"
// @Success  200 {array} response.ServiceRequestResponse
// @Security Bearer
// @Router   /service-requests/available [get]
func (h *ServiceRequestHandler) ListAvailable(c *gin.Context) {
	categories := request.ParseCategories(c.QueryArray("category"))
	listings, err := h.usecase.ListAvailable(c.Request.Context(), categories)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromServiceRequestListings(listings))
}

// Get godoc
// @Summary  Get one of the caller's service requests
// @Tags     service-requests
// @Produce  json
// @Param    id path string true "Service request id"
// @Success  200 {object} response.ServiceRequestResponse
// @Failure  403 {object} pkg.HTTPError
// @Failure  404 {object} pkg.HTTPError
// @Security Bearer
// @Router   /service-requests/{id} [get]
func (h *ServiceRequestHandler) Get(c *gin.Context) {
	listing, err := h.usecase.GetForClient(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromServiceRequestListing(listing))
}

// Cancel godoc
// @Summary  Cancel an open service request
// @Tags     service-requests
// @Produce  json
// @Param    id path string true "Service request id"
// @Success  200 {object} response.ServiceRequestResponse
// @Failure  404 {object} pkg.HTTPError
// @Failure  409 {object} pkg.HTTPError
// @Security Bearer
// @Router   /service-requests/{id}/cancel [patch]
func (h *ServiceRequestHandler) Cancel(c *gin.Context) {
	cancelled, err := h.usecase.Cancel(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromServiceRequest(cancelled))
}

// Delete godoc
// @Summary  Delete a service request and its quotes
// @Tags     service-requests
// @Param    id path string true "Service request id"
// @Success  204
// @Failure  404 {object} pkg.HTTPError
// @Failure  409 {object} pkg.HTTPError
// @Security Bearer
// @Router   /service-requests/{id} [delete]
func (h *ServiceRequestHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
