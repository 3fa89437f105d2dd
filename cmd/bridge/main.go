package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/trenchverse/miniapp-bridge/internal/config"
	"github.com/trenchverse/miniapp-bridge/internal/handlers"
	"github.com/trenchverse/miniapp-bridge/internal/middleware"
	"github.com/trenchverse/miniapp-bridge/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := services.NewLedgerStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer store.Close()

	jwtService := services.NewJWTService(cfg)

	// Probe the wallet mini-app runtime first, then the social frame.
	// Neither answering is the valid standalone state.
	detectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	walletRuntime := services.NewWalletRuntime(cfg.WalletRuntimeURL)
	frameRuntime := services.NewFrameRuntime(cfg.FrameRuntimeURL, cfg.ComposeBaseURL, cfg.ShareEmbedURL)
	runtime := services.DetectRuntime(detectCtx, walletRuntime, frameRuntime)
	cancel()

	if err := runtime.SignalReady(context.Background()); err != nil {
		log.Printf("Failed to signal frame readiness: %v", err)
	}

	var payments *services.PaymentService
	if runtime.Kind() == services.HostWallet {
		payments = services.NewPaymentService(walletRuntime, cfg.PaymentRecipient)
	}

	notifier := services.NewNotifyClient(cfg.NotifyURL)

	engine := services.NewBridgeEngine(store, runtime, payments, notifier, cfg)

	authHandler := handlers.NewAuthHandler(store, jwtService, runtime)
	userHandler := handlers.NewUserHandler(store)
	wsHandler := handlers.NewWebSocketHandler(engine, store)
	gamesHandler := handlers.NewGamesHandler(cfg)
	notifyHandler := handlers.NewNotifyHandler(notifier)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/auth/host", authHandler.Authenticate)
	router.Static("/games", cfg.GamesDir)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(store))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/logout", userHandler.Logout)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		protected.GET("/games", gamesHandler.ListGames)
		protected.POST("/notify", notifyHandler.SendNotification)
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Bridge starting on port %s (host runtime: %s)", port, runtime.Kind())
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
