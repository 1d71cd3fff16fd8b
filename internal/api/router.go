package api

import (
	"net/http"
	"time"

	"stashbox/internal/api/handler"
	"stashbox/internal/api/middleware"
	"stashbox/internal/app/service"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	authService *service.AuthService,
	itemService *service.ItemService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	authenticator := middleware.NewAuthenticator(authService)

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// User routes (authenticated)
		userHandler := handler.NewUserHandler()
		v1.Route("/users", func(users chi.Router) {
			users.Use(authenticator.RequireUser)
			userHandler.RegisterRoutes(users)
		})

		// Item routes (authenticated, owner-scoped)
		itemHandler := handler.NewItemHandler(itemService)
		v1.Route("/items", func(items chi.Router) {
			items.Use(authenticator.RequireUser)
			itemHandler.RegisterRoutes(items)
		})
	})

	return r
}
