package files

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinnysriramcharan/Rag-project/internal/logger"
	"github.com/dinnysriramcharan/Rag-project/internal/rag"
)

func init() {
	_ = logger.Init("debug", "console", "stdout")
}

// stubStore 记录写入的记录
type stubStore struct {
	items []*rag.IndexedItem
	ns    string
}

func (s *stubStore) Upsert(ctx context.Context, items []*rag.IndexedItem, namespace string) error {
	s.items = append(s.items, items...)
	s.ns = namespace
	return nil
}

func (s *stubStore) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]*rag.Match, error) {
	return nil, nil
}

// stubEmbedder 返回固定向量
type stubEmbedder struct{}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1}
	}
	return vectors, nil
}

func (e *stubEmbedder) GetModel() string  { return "text-embedding-3-small" }
func (e *stubEmbedder) GetDimension() int { return 1 }

func newTestRouter(store *stubStore, maxFileSize int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	ingester := rag.NewIngester(store, &stubEmbedder{}, nil, rag.IngesterOptions{})
	handler := NewHandler(ingester, maxFileSize)

	router := gin.New()
	router.POST("/api/upload", handler.Upload)
	return router
}

// doUpload 构造 multipart 上传请求
func doUpload(router *gin.Engine, fileName, content, namespace string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if fileName != "" {
		part, _ := writer.CreateFormFile("file", fileName)
		_, _ = part.Write([]byte(content))
	}
	if namespace != "" {
		_ = writer.WriteField("namespace", namespace)
	}
	_ = writer.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)
	return w
}

func TestUploadHandler(t *testing.T) {
	t.Run("上传文本文档成功", func(t *testing.T) {
		store := &stubStore{}
		router := newTestRouter(store, 0)

		w := doUpload(router, "policy.txt", "退款政策: 三十天内可无理由退款。", "kb")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp UploadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 1, resp.ChunksCreated)
		assert.Equal(t, "kb", resp.Namespace)
		assert.Greater(t, resp.FileSizeBytes, int64(0))

		require.Len(t, store.items, 1)
		assert.Equal(t, "kb", store.ns)
		assert.Equal(t, "policy.txt", store.items[0].Metadata["source"])
	})

	t.Run("命名空间缺省为default", func(t *testing.T) {
		store := &stubStore{}
		router := newTestRouter(store, 0)

		w := doUpload(router, "a.md", "# 标题\n\n正文内容。", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp UploadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, rag.DefaultNamespace, resp.Namespace)
	})

	t.Run("缺少文件返回400", func(t *testing.T) {
		router := newTestRouter(&stubStore{}, 0)

		w := doUpload(router, "", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("不支持的扩展名返回400", func(t *testing.T) {
		router := newTestRouter(&stubStore{}, 0)

		w := doUpload(router, "data.csv", "x,y", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("空文档返回400", func(t *testing.T) {
		router := newTestRouter(&stubStore{}, 0)

		w := doUpload(router, "blank.txt", "   \n\n  ", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("超过大小限制返回413", func(t *testing.T) {
		router := newTestRouter(&stubStore{}, 16)

		w := doUpload(router, "big.txt", strings.Repeat("内容", 100), "")
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
