package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/internal/token"
	users "auction-house/internal/userService"
	"auction-house/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	repo, cleanup, err := setupRepository(context.Background())
	if err != nil {
		utils.Fatal("failed to set up storage", map[string]any{"error": err.Error()})
	}
	defer cleanup()

	tokens, err := token.NewManager(utils.GetEnv("TOKEN_SECRET", "dev-only-secret"))
	if err != nil {
		utils.Fatal("failed to set up token manager", map[string]any{"error": err.Error()})
	}

	auctionSvc := auction.NewAuctionService(repo)
	userSvc := users.NewUserService(repo, tokens)

	router := server.SetupRouter(auctionSvc, userSvc, tokens)

	port := getPort()
	fmt.Printf("Starting auction server on %s...\n", port)
	if err := router.Run(port); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// setupRepository picks Postgres when a DSN is configured and falls back
// to the in-memory store otherwise.
func setupRepository(ctx context.Context) (repository.AuctionDB, func(), error) {
	dsn := utils.GetEnv("AUCTION_DB_DSN", "")
	if dsn == "" {
		utils.Info("using in-memory storage", nil)
		return repository.NewMemoryRepo(), func() {}, nil
	}

	pg, err := repository.NewPostgresRepo(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	utils.Info("using postgres storage", nil)
	return pg, pg.Close, nil
}

// getPort returns the server port from env or defaults to ":8080"
func getPort() string {
	if p := os.Getenv("PORT"); p != "" {
		return fmt.Sprintf(":%s", p)
	}
	return ":8080"
}
