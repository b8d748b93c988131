package server

import (
	"node-wallet/internal/handler"
	"node-wallet/internal/handler/response"
	"node-wallet/internal/server/routes"
	"node-wallet/pkg/monitor"
	"node-wallet/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖
type Handlers struct {
	Wallet   *handler.WalletHandler
	Account  *handler.AccountHandler
	Contract *handler.ContractHandler
	Tx       *handler.TxHandler
}

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(h Handlers) *gin.Engine {
	monitor.Init()
	validator.Init()

	// 默认中间件: Logger, Recovery
	r := gin.Default()
	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, gin.H{"pong": true})
		})

		routes.RegisterWalletRoutes(api, h.Wallet)
		routes.RegisterAccountRoutes(api, h.Account)
		routes.RegisterContractRoutes(api, h.Contract)
		routes.RegisterTxRoutes(api, h.Tx)
	}

	return r
}
