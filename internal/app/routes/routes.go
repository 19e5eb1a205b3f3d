package routes

import (
	"time"

	"actrec-directory/internal/app/controllers"
	"actrec-directory/internal/app/middleware"
	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/domain/services/container"
	"actrec-directory/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine with every directory route
func SetupRouter(serviceContainer *container.ServiceContainer) *gin.Engine {
	cfg := serviceContainer.GetService("config").(*config.Config)
	logger := serviceContainer.GetService("logger").(*zap.Logger)

	r := gin.New()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(cors(cfg.CORSAllowOrigin))
	r.Use(middleware.RateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimitRPS,
		Burst:      cfg.RateLimitBurst,
		ExpiryTime: time.Hour,
	}))

	registerRoutes(r, serviceContainer)
	return r
}

func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// registerRoutes wires every API route
func registerRoutes(r *gin.Engine, container *container.ServiceContainer) {
	jwtService := container.GetService("jwt").(services.InterfaceJWTService)
	cache := container.GetService("cache").(services.InterfaceDirectoryCache)
	logger := container.GetService("logger").(*zap.Logger)

	requireUser := middleware.AuthenticateUser(jwtService)
	requireAdmin := middleware.AuthenticateAdmin(jwtService)

	api := r.Group("/api")

	// health
	api.GET("/health", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health/ready", controllers.HandleHealthFunc(container, "ready"))

	// auth
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))
	api.GET("/auth/me", requireUser, controllers.HandleJWTFunc(container, "me"))

	// contacts; static paths are registered before /:id
	contactGroup := api.Group("/contacts")
	{
		contactGroup.GET("", controllers.HandleContactFunc(container, "getContacts"))
		contactGroup.GET("/departments", controllers.HandleContactFunc(container, "getDepartments"))
		contactGroup.POST("", requireAdmin, controllers.HandleContactFunc(container, "createContact"))
		contactGroup.PUT("", requireUser, controllers.HandleContactFunc(container, "updateContact"))
		contactGroup.DELETE("", requireAdmin, controllers.HandleContactFunc(container, "deleteContact"))

		contactGroup.POST("/bulk", requireAdmin, controllers.HandleBulkFunc(container, "bulkInsert"))
		contactGroup.PUT("/bulk", requireAdmin, controllers.HandleBulkFunc(container, "bulkUpdate"))
		contactGroup.DELETE("/bulk", requireAdmin, controllers.HandleBulkFunc(container, "bulkDelete"))

		contactGroup.POST("/import", requireAdmin, controllers.HandleTransferFunc(container, "import"))
		contactGroup.GET("/export", requireAdmin, middleware.Cache(cache, logger), controllers.HandleTransferFunc(container, "export"))

		contactGroup.GET("/:id", controllers.HandleContactFunc(container, "getContact"))
	}

	// accounts
	api.PUT("/accounts/:id/role", requireAdmin, controllers.HandleContactFunc(container, "changeRole"))
}
