package router

import (
	"fmt"
	"strings"

	"github.com/pizzaria-cajazeiras/internal/config"
	"github.com/pizzaria-cajazeiras/internal/constants"
	publichandlers "github.com/pizzaria-cajazeiras/internal/http/handlers/public"
	"github.com/pizzaria-cajazeiras/internal/http/response"
	"github.com/pizzaria-cajazeiras/internal/logger"
	"github.com/pizzaria-cajazeiras/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pizzaria"
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.CheckoutRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}
	rateLimitStore := NewRateLimitStore(c.Redis)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "not found")
	})

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/health", publicHandler.Health)

		client := apiV1.Group("")
		client.Use(SessionMiddleware(c.Sessions))
		{
			client.GET("/catalog", publicHandler.GetCatalog)
			client.GET("/catalog/pizzas/:id", publicHandler.GetPizza)
			client.POST("/catalog/retry", publicHandler.RetryCatalog)
			client.POST("/catalog/connectivity", publicHandler.SetConnectivity)

			client.GET("/cart", publicHandler.GetCart)
			client.POST("/cart/items", publicHandler.AddCartItem)
			client.PUT("/cart/items/:key", publicHandler.UpdateCartItem)
			client.DELETE("/cart/items/:key", publicHandler.RemoveCartItem)
			client.DELETE("/cart", publicHandler.ClearCart)

			client.GET("/cache/info", publicHandler.GetCacheInfo)
			client.GET("/cache/entries/:key", publicHandler.GetCacheEntry)
			client.PUT("/cache/entries/:key", publicHandler.PutCacheEntry)
			client.DELETE("/cache/entries/:key", publicHandler.RemoveCacheEntry)
			client.DELETE("/cache", publicHandler.ClearCache)

			client.GET("/checkout/cep/:cep", publicHandler.LookupCEP)
			client.POST("/checkout/validate/:step", publicHandler.ValidateCheckoutStep)
			client.POST("/checkout",
				RateLimitMiddleware(rateLimitStore, checkoutRule, KeyByIPAndHeader(constants.HeaderClientID)),
				publicHandler.SubmitCheckout,
			)
			client.GET("/checkout/last-order", publicHandler.GetLastOrder)
		}
	}

	return r
}
