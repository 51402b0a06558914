package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cart-service/config"
	"github.com/ikkim/cart-service/internal/app/controller"
	"github.com/ikkim/cart-service/internal/db"
	"github.com/ikkim/cart-service/internal/middleware"
	"github.com/ikkim/cart-service/pkg/redis"
)

type Router struct {
	cartController *controller.CartController
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

func NewRouter(
	cartController *controller.CartController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		cartController: cartController,
		authMiddleware: authMiddleware,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", healthCheck)

	v1 := router.Group("/api/v1")
	{
		cart := v1.Group("/cart")
		{
			// Cart routes resolve an identity (JWT or anonymous id) but
			// never require login. Merge is the exception: it needs a real
			// authenticated target.
			cart.POST("/merge", r.authMiddleware.Authenticate(), r.cartController.MergeCarts)

			cart.Use(r.authMiddleware.Identify())
			cart.GET("", r.cartController.GetCart)
			cart.POST("/items", r.cartController.AddItem)
			cart.PUT("/items/:productId", r.cartController.UpdateItem)
			cart.DELETE("/items/:productId", r.cartController.RemoveItem)
			cart.DELETE("", r.cartController.ClearCart)
		}
	}

	return router
}

func healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	status := http.StatusOK
	overall := "healthy"
	redisStatus := "healthy"
	catalogStatus := "healthy"

	if err := redis.Ping(ctx); err != nil {
		redisStatus = "unavailable"
		overall = "degraded"
		status = http.StatusServiceUnavailable
	}
	if err := db.Ping(ctx); err != nil {
		catalogStatus = "unavailable"
		overall = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"redis":      redisStatus,
		"catalog_db": catalogStatus,
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+middleware.AnonymousIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.AnonymousIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
