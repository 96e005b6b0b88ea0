package rag

import "strings"

// greetingPhrases 问候/寒暄短语全集, 命中则视为闲聊
var greetingPhrases = map[string]struct{}{
	"hi":                   {},
	"hello":                {},
	"hey":                  {},
	"good morning":         {},
	"good afternoon":       {},
	"good evening":         {},
	"how are you":          {},
	"how's it going":       {},
	"what's up":            {},
	"how do you do":        {},
	"thanks":               {},
	"thank you":            {},
	"bye":                  {},
	"goodbye":              {},
	"see you later":        {},
	"nice to meet you":     {},
	"pleasure to meet you": {},
}

// fillerWords 极短消息中的口语填充词
var fillerWords = []string{"hi", "hello", "hey", "ok", "yes", "no"}

// IsGeneralConversation 判断消息是否为普通寒暄而非文档相关提问
// 纯启发式: 命中固定短语全集, 或不超过两个词且包含填充词;
// 已知会把 "no context?" 这类极短的追问也判为闲聊, 属于有意保留的行为
func IsGeneralConversation(message string) bool {
	messageLower := strings.ToLower(strings.TrimSpace(message))

	if _, ok := greetingPhrases[messageLower]; ok {
		return true
	}

	if len(strings.Fields(messageLower)) <= 2 {
		for _, word := range fillerWords {
			if strings.Contains(messageLower, word) {
				return true
			}
		}
	}

	return false
}
