package metrics

import (
	"time"
)

// RecordRAGSearch 记录一次向量检索: 耗时、命中数、成功与否
func RecordRAGSearch(namespace string, fn func() (int, error)) (int, error) {
	start := time.Now()

	resultCount, err := fn()

	duration := time.Since(start).Seconds()
	RAGSearchDuration.WithLabelValues(namespace).Observe(duration)

	if resultCount > 0 {
		RAGSearchResults.WithLabelValues(namespace).Observe(float64(resultCount))
	}

	status := "success"
	if err != nil {
		status = "failed"
	}
	RAGSearchesTotal.WithLabelValues(namespace, status).Inc()

	return resultCount, err
}

// RecordChat 记录一次问答请求, mode 取 general 或 document
func RecordChat(mode string, fn func() error) error {
	start := time.Now()

	err := fn()

	ChatDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "failed"
	}
	ChatRequestsTotal.WithLabelValues(mode, status).Inc()

	return err
}

// RecordIngest 记录一次文档摄取, fn 返回写入的分块数
func RecordIngest(fileType string, fn func() (int, error)) (int, error) {
	start := time.Now()

	chunks, err := fn()

	IngestDuration.WithLabelValues(fileType).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "failed"
	}
	DocumentsIngestedTotal.WithLabelValues(fileType, status).Inc()

	if chunks > 0 {
		ChunksIngestedTotal.Add(float64(chunks))
	}

	return chunks, err
}
