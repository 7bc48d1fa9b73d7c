package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"pulsetrade/configs"
	"pulsetrade/internal/cache"
	"pulsetrade/internal/database"
	delivery "pulsetrade/internal/delivery/http"
	"pulsetrade/internal/domain"
	"pulsetrade/internal/infra"
	"pulsetrade/internal/repository"
	"pulsetrade/internal/service"
	"pulsetrade/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := configs.Load()

	// Initialize context
	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize quote cache: Redis when configured, in-process otherwise
	var store cache.Store
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		redisStore := cache.NewRedisStore(opt)
		if err := redisStore.Client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to ping Redis: %v", err)
		}
		log.Println("[OK] Redis connected successfully")
		store = redisStore
	} else {
		log.Println("Warning: REDIS_URL not set, using in-process quote cache")
		store = cache.NewMemoryStore()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	currencyRepo := repository.NewCurrencyRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)

	// Initialize price simulator
	simulator := service.NewPriceSimulatorService(
		currencyRepo,
		store,
		cfg.Simulator.TickInterval,
		cfg.Simulator.MaxChangePercent,
		cfg.Simulator.GlideSteps,
		cfg.Simulator.SettleDuration,
	)
	if err := simulator.Start(); err != nil {
		log.Fatalf("Failed to start price simulator: %v", err)
	}
	defer simulator.Stop()

	// Initialize settlement pipeline
	settlementService := service.NewSettlementService(
		orderRepo,
		userRepo,
		simulator,
		domain.PercentBias{Percent: cfg.Trading.BiasPercent},
	)

	orderScheduler := infra.NewOrderScheduler(orderRepo, settlementService)
	if err := orderScheduler.Start(); err != nil {
		log.Fatalf("Failed to start order scheduler: %v", err)
	}
	defer orderScheduler.Stop()

	// Initialize services
	orderService := usecase.NewOrderService(orderRepo, orderScheduler)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, userRepo)

	// Initialize handlers
	authHandler := delivery.NewAuthHandler(userRepo, adminRepo, cfg.Trading.DefaultBalance)
	adminHandler := delivery.NewAdminHandler(adminRepo, userRepo)
	orderHandler := delivery.NewOrderHandler(orderService)
	currencyHandler := delivery.NewCurrencyHandler(currencyRepo, simulator, cfg.Simulator.GlideDuration)
	withdrawalHandler := delivery.NewWithdrawalHandler(withdrawalService)

	// Initialize HTTP router
	e := echo.New()
	e.HideBanner = true
	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:       authHandler,
		AdminHandler:      adminHandler,
		OrderHandler:      orderHandler,
		CurrencyHandler:   currencyHandler,
		WithdrawalHandler: withdrawalHandler,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("PulseTrade API starting on %s", addr)
	log.Printf("Environment: %s", cfg.Server.Env)
	log.Printf("Ambient tick: every %s, max move %.2f%%", cfg.Simulator.TickInterval, cfg.Simulator.MaxChangePercent)
	log.Printf("Settlement bias: %.2f%%", cfg.Trading.BiasPercent)

	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	// Run server in goroutine
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[OK] Server exited gracefully")
}
