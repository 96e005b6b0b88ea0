package rag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ChatCompleter 抽象对话补全服务, 便于测试时替换
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatTurn, temperature float32) (string, error)
}

// OpenAIChatClient OpenAI 对话补全客户端适配器
type OpenAIChatClient struct {
	client     *openai.Client
	modelID    string
	maxRetries int
}

// NewOpenAIChatClient 创建 OpenAI 对话客户端
func NewOpenAIChatClient(apiKey, baseURL, model string, maxRetries int) *OpenAIChatClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	if model == "" {
		model = openai.GPT4oMini
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &OpenAIChatClient{
		client:     openai.NewClientWithConfig(clientConfig),
		modelID:    model,
		maxRetries: maxRetries,
	}
}

// Complete 对话补全（非流式）
func (c *OpenAIChatClient) Complete(ctx context.Context, messages []ChatTurn, temperature float32) (string, error) {
	// 转换消息格式
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.modelID,
		Messages:    chatMessages,
		Temperature: temperature,
	}

	// 调用 API（带重试）
	var resp openai.ChatCompletionResponse
	var err error
	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		// 判断是否可重试
		if !isRetryableError(err) {
			break
		}

		// 指数退避
		if i < c.maxRetries {
			backoff := time.Duration(1<<uint(i)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	if err != nil {
		return "", fmt.Errorf("调用对话补全API失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("对话补全API返回空响应")
	}

	return resp.Choices[0].Message.Content, nil
}

// isRetryableError 判断错误是否可重试: 限流、服务端错误、网络超时
func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
