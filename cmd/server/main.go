package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stashbox/internal/api"
	"stashbox/internal/app/service"
	"stashbox/internal/common/security"
	"stashbox/internal/domain/repository"
	"stashbox/internal/platform/cache"
	"stashbox/internal/platform/config"
	"stashbox/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Configuration loaded.")

	// 2. Token Service (secret and TTL bound once here)
	tokenService := security.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	// 3. Database
	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()
	log.Println("Database connected.")

	// 4. Redis item cache (optional; the service runs without it)
	var itemCache service.ItemCache
	rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Printf("Redis unavailable, item cache disabled: %v", err)
	} else {
		defer rdb.Close()
		itemCache = cache.NewItemCache(rdb, cfg.ItemCacheTTL)
		log.Println("Redis connected.")
	}

	// 5. Repositories
	userRepo := repository.NewPgUserRepository(db)
	itemRepo := repository.NewPgItemRepository(db)

	// 6. Services
	authService := service.NewAuthService(userRepo, tokenService)
	itemService := service.NewItemService(itemRepo, itemCache)

	// 7. Router & HTTP Server
	router := api.NewRouter(authService, itemService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
