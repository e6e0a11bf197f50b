package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenAIChat 测试OpenAI兼容端点的单轮生成
func TestOpenAIChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req["messages"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message": map[string]string{
					"role":    "assistant",
					"content": "  Slide 1: Hello  ",
				},
			}},
			"usage": map[string]int{"total_tokens": 17},
		})
	}))
	defer server.Close()

	client, err := NewOpenAIClient(
		WithAPIKey("test-key"),
		WithBaseURL(server.URL+"/v1"),
		WithModel("gpt-4o-mini"),
		WithTimeout(5*time.Second),
	)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", client.Name())

	resp, err := client.Generate(context.Background(), "make an outline")
	require.NoError(t, err)
	assert.Equal(t, "Slide 1: Hello", resp.Text, "响应文本应去除首尾空白")
	assert.Equal(t, 17, resp.TokenCount)
}

// TestOpenAIMissingAPIKey 测试缺失API密钥
func TestOpenAIMissingAPIKey(t *testing.T) {
	_, err := NewOpenAIClient()
	require.Error(t, err)

	llmErr, ok := err.(LLMError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidAPIKey, llmErr.Code)
}

// TestOpenAIGeminiModelFallback 测试gemini模型名回退到默认模型
func TestOpenAIGeminiModelFallback(t *testing.T) {
	client, err := NewOpenAIClient(
		WithAPIKey("test-key"),
		WithModel("gemini-2.0-flash"),
	)
	require.NoError(t, err)
	assert.Equal(t, ModelGPT4oMini, client.Name())
}
