package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler 健康检查处理器
type Handler struct {
	startTime time.Time
}

// NewHandler 创建健康检查处理器
func NewHandler() *Handler {
	return &Handler{startTime: time.Now()}
}

// Check 健康检查
// @Summary 健康检查
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func (h *Handler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
	})
}
