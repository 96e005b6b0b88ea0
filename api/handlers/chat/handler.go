package chat

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	response "github.com/dinnysriramcharan/Rag-project/api/handlers/common"
	"github.com/dinnysriramcharan/Rag-project/internal/logger"
	"github.com/dinnysriramcharan/Rag-project/internal/metrics"
	"github.com/dinnysriramcharan/Rag-project/internal/rag"

	"go.uber.org/zap"
)

// 请求限制
const (
	maxMessageLength = 2000
	maxTopK          = 20
)

// Handler 问答处理器
type Handler struct {
	chain *rag.Chain
}

// NewHandler 创建问答处理器
func NewHandler(chain *rag.Chain) *Handler {
	return &Handler{chain: chain}
}

// ChatRequest 问答请求
// TopK 用指针区分"未提供"（使用默认值）与显式传入的值
type ChatRequest struct {
	Message   string         `json:"message" binding:"required,min=1"`
	History   []rag.ChatTurn `json:"history"`
	TopK      *int           `json:"top_k"`
	Namespace string         `json:"namespace"`
}

// ChatResponse 问答响应
type ChatResponse struct {
	Answer    string         `json:"answer"`
	Citations []rag.Citation `json:"citations"`
}

// Chat 文档问答
// @Summary 文档问答
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "问答请求"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/chat [post]
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "参数错误: " + err.Error()})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "消息不能为空"})
		return
	}
	// 按字符数（码点）而非字节数计长
	if utf8.RuneCountInString(message) > maxMessageLength {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "消息过长，最多 2000 字符"})
		return
	}

	// 未提供 topK 时交给问答链使用默认值, 显式传入则收敛到 [1, 20]
	topK := 0
	if req.TopK != nil {
		topK = *req.TopK
		if topK < 1 {
			topK = 1
		}
		if topK > maxTopK {
			topK = maxTopK
		}
	}

	namespace := strings.TrimSpace(req.Namespace)
	if namespace == "" {
		namespace = rag.DefaultNamespace
	}

	mode := "document"
	if rag.IsGeneralConversation(message) {
		mode = "general"
	}

	var result *rag.ChatResult
	err := metrics.RecordChat(mode, func() error {
		var chatErr error
		result, chatErr = h.chain.Chat(c.Request.Context(), message, req.History, topK, namespace)
		return chatErr
	})
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("问答失败",
			zap.String("namespace", namespace),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: "问答失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Answer:    result.Answer,
		Citations: result.Citations,
	})
}
