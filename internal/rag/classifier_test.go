package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGeneralConversation(t *testing.T) {
	t.Run("问候短语判为闲聊", func(t *testing.T) {
		for _, msg := range []string{
			"hi", "Hello", "HEY", "good morning", "How are you",
			"thanks", "Thank you", "bye", "  hello  ", "nice to meet you",
		} {
			assert.True(t, IsGeneralConversation(msg), msg)
		}
	})

	t.Run("极短填充消息判为闲聊", func(t *testing.T) {
		for _, msg := range []string{"ok", "yes", "no", "ok then", "hi there", "no context?"} {
			assert.True(t, IsGeneralConversation(msg), msg)
		}
	})

	t.Run("文档相关提问不判为闲聊", func(t *testing.T) {
		for _, msg := range []string{
			"What does section 3 of the contract say about termination?",
			"Summarize the uploaded report",
			"who is the author",
			"explain chapter two",
		} {
			assert.False(t, IsGeneralConversation(msg), msg)
		}
	})

	t.Run("三个词以上即使包含填充词也不判为闲聊", func(t *testing.T) {
		assert.False(t, IsGeneralConversation("no it does not"))
	})
}
