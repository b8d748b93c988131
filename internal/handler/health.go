package handler

import (
	"node-wallet/internal/handler/response"

	"github.com/gin-gonic/gin"
)

// HealthCheck GET /health
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"version": "1.0.0",
		"service": "node-server",
	})
}
