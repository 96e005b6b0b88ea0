package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册所有 API 路由
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	api := router.Group("/api")
	{
		api.POST("/chat", h.Chat.Chat)
		api.POST("/upload", h.Files.Upload)
		api.GET("/health", h.Health.Check)
	}

	// 兼容不带 /api 前缀的健康检查（负载均衡探活）
	router.GET("/health", h.Health.Check)
}
