package files

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	response "github.com/dinnysriramcharan/Rag-project/api/handlers/common"
	"github.com/dinnysriramcharan/Rag-project/internal/logger"
	"github.com/dinnysriramcharan/Rag-project/internal/rag"

	"go.uber.org/zap"
)

// allowedExtensions 允许上传的文件扩展名
var allowedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// Handler 文档上传处理器
type Handler struct {
	ingester    *rag.Ingester
	maxFileSize int64
}

// NewHandler 创建上传处理器
func NewHandler(ingester *rag.Ingester, maxFileSize int64) *Handler {
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	return &Handler{
		ingester:    ingester,
		maxFileSize: maxFileSize,
	}
}

// UploadResponse 上传响应
type UploadResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ChunksCreated int    `json:"chunks_created"`
	Namespace     string `json:"namespace"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// Upload 上传并摄取文档
// @Summary 上传并摄取文档
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "待摄取文件（pdf/txt/md）"
// @Param namespace formData string false "命名空间, 默认 default"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "缺少上传文件"})
		return
	}

	fileName := filepath.Base(fileHeader.Filename)
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("不支持的文件类型 %s, 仅支持 .pdf, .txt, .md", ext),
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件过大, 最大 %dMB", h.maxFileSize/(1024*1024)),
		})
		return
	}

	namespace := strings.TrimSpace(c.PostForm("namespace"))
	if namespace == "" {
		namespace = rag.DefaultNamespace
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: "读取上传文件失败"})
		return
	}
	defer file.Close()

	log := logger.WithContext(c.Request.Context())
	log.Info("开始处理上传文档",
		zap.String("file", fileName),
		zap.Int64("size", fileHeader.Size),
		zap.String("namespace", namespace))

	chunks, err := h.ingester.IngestReader(c.Request.Context(), file, fileName, namespace)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "文件中没有可提取的文本"})
		case errors.Is(err, rag.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Success: false, Message: "不支持的文件格式"})
		default:
			log.Error("文档摄取失败", zap.String("file", fileName), zap.Error(err))
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Success: false, Message: "处理文件失败: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Success:       true,
		Message:       fmt.Sprintf("Successfully processed %s", fileName),
		ChunksCreated: chunks,
		Namespace:     namespace,
		FileSizeBytes: fileHeader.Size,
	})
}
