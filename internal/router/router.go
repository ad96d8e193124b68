package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jotter-dev/jotter/internal/auth"
	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/config"
	"github.com/jotter-dev/jotter/internal/handlers"
	"github.com/jotter-dev/jotter/internal/middleware"
	"github.com/jotter-dev/jotter/internal/services"
	"github.com/jotter-dev/jotter/internal/types"
	"gorm.io/gorm"
)

func New(cfg *config.Config, database *gorm.DB, store *cache.Store, tokens *auth.TokenService, initializer services.EnvironmentInitializer) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authService := services.NewAuthService(database, store, tokens, initializer)
	categoryService := services.NewCategoryService(database, store)
	noteService := services.NewNoteService(database, store)

	authHandler := handlers.NewAuthHandler(authService, tokens)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	noteHandler := handlers.NewNoteHandler(noteService)

	requireAuth := middleware.Auth(database, tokens)
	userLimit := middleware.UserRateLimit(store, cfg.RateLimitUserPerHour, cfg.RateLimitWindow)
	anonLimit := middleware.AnonRateLimit(store, cfg.RateLimitAnonPerHour, cfg.RateLimitWindow)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", anonLimit, authHandler.Signup)
			authRoutes.POST("/signin", anonLimit, authHandler.Signin)
			authRoutes.POST("/refresh", anonLimit, authHandler.Refresh)
			authRoutes.POST("/logout", requireAuth, userLimit, authHandler.Logout)
			authRoutes.GET("/me", requireAuth, userLimit, authHandler.Me)
		}

		categories := api.Group("/categories", requireAuth, userLimit)
		{
			categories.GET("", categoryHandler.List)
			categories.POST("", categoryHandler.Create)
			categories.GET("/:category_id", categoryHandler.Get)
			categories.PATCH("/:category_id", categoryHandler.Update)
			categories.DELETE("/:category_id", categoryHandler.Delete)
		}

		notes := api.Group("/notes", requireAuth, userLimit)
		{
			notes.GET("", noteHandler.List)
			notes.POST("", noteHandler.Create)
			notes.GET("/:note_id", noteHandler.Get)
			notes.PATCH("/:note_id", noteHandler.Update)
			notes.DELETE("/:note_id", noteHandler.Delete)
		}
	}

	return r
}
