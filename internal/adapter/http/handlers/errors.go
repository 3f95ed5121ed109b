package handlers

import (
	"errors"
	"net/http"

	"homequote/internal/usecase"
	"homequote/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidServiceRequestPayload = pkg.NewDomainErrorSimple("INVALID_SERVICE_REQUEST_INPUT", "Invalid service request payload", http.StatusBadRequest)
	errInvalidQuotePayload          = pkg.NewDomainErrorSimple("INVALID_QUOTE_INPUT", "Invalid quote payload", http.StatusBadRequest)
)

// mapLifecycleError converts use case errors into the HTTP envelope by kind.
func mapLifecycleError(err error) *pkg.AppError {
	var outOfRange *usecase.PriceOutOfRangeError
	switch {
	case errors.As(err, &outOfRange):
		return pkg.NewDomainErrorSimple("PRICE_OUT_OF_RANGE", outOfRange.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrValidation):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrServiceRequestNotFound):
		return pkg.NewDomainErrorSimple("SERVICE_REQUEST_NOT_FOUND", "Service request not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrQuoteNotFound):
		return pkg.NewDomainErrorSimple("QUOTE_NOT_FOUND", "Quote not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrNotFound):
		return pkg.NewDomainErrorSimple("NOT_FOUND", "Resource not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrForbidden):
		return pkg.NewDomainErrorSimple("FORBIDDEN", "Caller does not own this resource", http.StatusForbidden)
	case errors.Is(err, usecase.ErrConflict):
		return pkg.NewDomainErrorSimple("CONFLICT", err.Error(), http.StatusConflict)
	case errors.Is(err, usecase.ErrOracleUnavailable):
		return pkg.NewDomainError("PRICING_UNAVAILABLE", "Pricing service unavailable, try again later", err, http.StatusServiceUnavailable)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

func writeError(c *gin.Context, err error) {
	appErr := mapLifecycleError(err)
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}
