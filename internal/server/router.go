package server

import (
	auction "auction-house/internal/auctionService"
	"auction-house/internal/token"
	users "auction-house/internal/userService"
	auctionhandler "auction-house/services/auction/handler"
	userhandler "auction-house/services/users/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService *auction.AuctionService, userService *users.UserService, tokens *token.Manager) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := auctionhandler.NewAuctionHandler(auctionService)
	userHandler := userhandler.NewUserHandler(userService)

	authRequired := BearerAuth(tokens)

	userRoutes := router.Group("/users")
	{
		userRoutes.POST("", userHandler.RegisterUserHandler)
		userRoutes.POST("/login", userHandler.LoginUserHandler)
	}

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.POST("", authRequired, auctionHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bids", authRequired, auctionHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.LeaderboardHandler)
	}

	return router
}
