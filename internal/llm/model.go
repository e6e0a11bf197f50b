package llm

import "time"

// MessageRole 消息角色类型
type MessageRole string

const (
	// RoleUser 用户角色
	RoleUser MessageRole = "user"
	// RoleModel 模型角色（Gemini的assistant对应角色）
	RoleModel MessageRole = "model"
	// RoleSystem 系统角色
	RoleSystem MessageRole = "system"
)

// Message 对话消息结构
type Message struct {
	Role    MessageRole `json:"role"`    // 角色
	Content string      `json:"content"` // 内容
}

// GeminiRequest Gemini generateContent请求结构
type GeminiRequest struct {
	Contents         []GeminiContent         `json:"contents"`                   // 对话内容
	GenerationConfig *GeminiGenerationConfig `json:"generationConfig,omitempty"` // 可选生成参数
}

// GeminiContent 单条对话内容
type GeminiContent struct {
	Role  string       `json:"role,omitempty"` // user或model，单轮请求可省略
	Parts []GeminiPart `json:"parts"`          // 内容分段
}

// GeminiPart 内容分段，纯文本
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiGenerationConfig 生成参数
type GeminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`     // 采样温度
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"` // 最大输出Token数
}

// GeminiResponse Gemini generateContent响应结构
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"` // 候选回答列表
	Error      *GeminiError      `json:"error"`      // 错误信息（如果有）
	UsageMeta  *GeminiUsageMeta  `json:"usageMetadata"`
}

// GeminiCandidate 候选回答
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`      // 回答内容
	FinishReason string        `json:"finishReason"` // 结束原因
}

// GeminiError API错误信息
type GeminiError struct {
	Code    int    `json:"code"`    // 错误码
	Message string `json:"message"` // 错误消息
	Status  string `json:"status"`  // 错误状态
}

// GeminiUsageMeta Token使用情况
type GeminiUsageMeta struct {
	PromptTokenCount     int `json:"promptTokenCount"`     // 输入token数
	CandidatesTokenCount int `json:"candidatesTokenCount"` // 输出token数
	TotalTokenCount      int `json:"totalTokenCount"`      // 总token数
}

// Response 统一的响应结构
type Response struct {
	Text       string    // 生成的文本
	TokenCount int       // 使用的token数
	ModelName  string    // 使用的模型名称
	FinishTime time.Time // 完成时间
}

// 常用模型名称
const (
	ModelGeminiFlash = "gemini-2.0-flash" // Gemini Flash模型（快速，默认）
	ModelGeminiPro   = "gemini-1.5-pro"   // Gemini Pro模型（长上下文）
	ModelGPT4oMini   = "gpt-4o-mini"      // OpenAI兼容端点的默认模型
)
