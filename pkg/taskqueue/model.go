package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskDocumentProcess 文档处理完整流程任务
	// 包含解析、分块、摘要和标题生成
	TaskDocumentProcess TaskType = "document_process"
	// TaskDeckRender 大纲渲染任务
	TaskDeckRender TaskType = "deck_render"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	DocumentID  string          `json:"document_id"`  // 关联的文档ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷数据
	Result      json.RawMessage `json:"result"`       // 任务结果数据
	Error       string          `json:"error"`        // 错误信息（如果处理失败）
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// DocumentProcessPayload 文档处理任务载荷
type DocumentProcessPayload struct {
	DocumentID string `json:"document_id"` // 文档ID
	FilePath   string `json:"file_path"`   // 文件存储路径
	FileName   string `json:"file_name"`   // 文件名
	FileType   string `json:"file_type"`   // 文件类型
}

// DocumentProcessResult 文档处理任务结果
type DocumentProcessResult struct {
	DocumentID string `json:"document_id"` // 文档ID
	Summary    string `json:"summary"`     // 生成的摘要
	Title      string `json:"title"`       // 生成的标题
	ChunkCount int    `json:"chunk_count"` // 分块数量
	Error      string `json:"error"`       // 错误信息（如果有）
}

// DeckRenderPayload 大纲渲染任务载荷
type DeckRenderPayload struct {
	SessionID string `json:"session_id"` // 会话ID
	DeckID    string `json:"deck_id"`    // 大纲ID
}

// DeckRenderResult 大纲渲染任务结果
type DeckRenderResult struct {
	SessionID string `json:"session_id"` // 会话ID
	FilePath  string `json:"file_path"`  // 渲染产物路径
	Error     string `json:"error"`      // 错误信息（如果有）
}
