package routes

import (
	"node-wallet/internal/handler"

	"github.com/gin-gonic/gin"
)

func RegisterWalletRoutes(rg *gin.RouterGroup, h *handler.WalletHandler) {
	walletGroup := rg.Group("/wallet")
	{
		walletGroup.POST("/connect", h.Connect)
		walletGroup.GET("/pairing", h.Pairing)
		walletGroup.DELETE("/pairing", h.DismissPairing)
		walletGroup.GET("/session", h.Session)
		walletGroup.DELETE("/session", h.Disconnect)
	}
}
