package routes

import (
	"homequote/internal/adapter/http/handlers"
	"homequote/internal/adapter/http/middleware"

	"github.com/gin-gonic/gin"
)

const (
	PathServiceRequests = "/service-requests"
	PathQuotes          = "/quotes"
)

func addMarketplaceRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware, requestHandler *handlers.ServiceRequestHandler, quoteHandler *handlers.QuoteHandler) {
	client := auth.WithAuthCheck(middleware.RoleClient)
	provider := auth.WithAuthCheck(middleware.RoleProvider)

	requests := rg.Group(PathServiceRequests)
	{
		requests.POST("", client, requestHandler.Create)
		requests.GET("", client, requestHandler.ListMine)
		requests.GET("/available", provider, requestHandler.ListAvailable)
		requests.GET("/:id", client, requestHandler.Get)
		requests.PATCH("/:id/cancel", client, requestHandler.Cancel)
		requests.DELETE("/:id", client, requestHandler.Delete)

		requests.GET("/:id/quotes", client, quoteHandler.ListForServiceRequest)
		requests.GET("/:id/price-limits", provider, quoteHandler.PriceLimits)
	}

	quotes := rg.Group(PathQuotes)
	{
		quotes.POST("", provider, quoteHandler.Create)
		quotes.GET("", provider, quoteHandler.ListMine)
		quotes.PATCH("/:id/accept", client, quoteHandler.Accept)
		quotes.PATCH("/:id/complete", provider, quoteHandler.Complete)
		quotes.DELETE("/:id", provider, quoteHandler.Delete)
	}
}
