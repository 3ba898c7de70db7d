package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"essentia-system/internal/database/models"
	"essentia-system/internal/handlers"
	"essentia-system/internal/middleware"
	"essentia-system/internal/orders"
)

// Options tunes the router. Zero values fall back to sane defaults so tests
// can pass Options{}.
type Options struct {
	RateLimit string
	TokenTTL  time.Duration
}

// New builds the full HTTP surface. redisClient may be nil; catalog caching
// and order events are then disabled.
func New(db *gorm.DB, redisClient *redis.Client, opts Options) *gin.Engine {
	if opts.RateLimit == "" {
		opts.RateLimit = "100-M"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 2 * time.Hour
	}

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(opts.RateLimit))

	authHandler := handlers.NewAuthHandler(db, opts.TokenTTL)
	perfumeHandler := handlers.NewPerfumeHandler(db, redisClient)
	componentHandler := handlers.NewComponentHandler(db, redisClient)
	orderHandler := handlers.NewOrderHandler(orders.NewService(db, redisClient))
	dashboardHandler := handlers.NewDashboardHandler(db)

	api := r.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/signup", authHandler.SignUp)
		users.POST("/signin", authHandler.SignIn)
		users.GET("", middleware.JWTAuth(), authHandler.ListUsers)
	}

	perfumes := api.Group("/perfumes")
	{
		// catalog reads are public
		perfumes.GET("", perfumeHandler.List)
		perfumes.GET("/:id", perfumeHandler.Get)

		mutating := perfumes.Group("")
		mutating.Use(middleware.JWTAuth(), middleware.RequireRoles(models.RoleSupplier, models.RoleAdmin))
		{
			mutating.POST("", perfumeHandler.Create)
			mutating.PUT("/:id", perfumeHandler.Update)
			mutating.DELETE("/:id", perfumeHandler.Delete)
		}
	}

	components := api.Group("/components")
	components.Use(middleware.JWTAuth())
	{
		components.GET("", componentHandler.List)
		components.GET("/:id", componentHandler.Get)

		mutating := components.Group("")
		mutating.Use(middleware.RequireRoles(models.RoleSupplier, models.RoleAdmin))
		{
			mutating.POST("", componentHandler.Create)
			mutating.PUT("/:id", componentHandler.Update)
			mutating.DELETE("/:id", componentHandler.Delete)
		}
	}

	ordersGroup := api.Group("/orders")
	ordersGroup.Use(middleware.JWTAuth())
	{
		ordersGroup.GET("", orderHandler.List)
		ordersGroup.GET("/:id", orderHandler.Get)
		ordersGroup.GET("/Custom/:id", orderHandler.GetCustom)
		ordersGroup.POST("", middleware.RequireRoles(models.RoleClient), orderHandler.Create)
		ordersGroup.POST("/Custom", middleware.RequireRoles(models.RoleClient), orderHandler.CreateCustom)
		ordersGroup.PUT("/:id/Status",
			middleware.RequireRoles(models.RoleSupplier, models.RoleAdmin), orderHandler.UpdateStatus)
	}

	dashboard := api.Group("/dashboard")
	dashboard.Use(middleware.JWTAuth())
	{
		dashboard.GET("/Client", dashboardHandler.Client)
		dashboard.GET("/Supplier", dashboardHandler.Supplier)
		dashboard.GET("/Admin", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.Admin)
	}

	r.GET("/health", healthCheckHandler(db))

	return r
}

func healthCheckHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		httpStatus := http.StatusOK

		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"timestamp": time.Now(),
		})
	}
}
