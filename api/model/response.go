package model

import (
	"time"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// DocumentUploadResponse 文档上传响应
type DocumentUploadResponse struct {
	FileID   string `json:"file_id"`  // 文件ID
	FileName string `json:"filename"` // 文件名
	Status   string `json:"status"`   // 文档状态
}

// DocumentStatusResponse 文档状态查询响应
type DocumentStatusResponse struct {
	FileID     string `json:"file_id"`               // 文档ID
	Status     string `json:"status"`                // 处理状态
	Stage      string `json:"stage,omitempty"`       // 当前处理阶段
	Progress   int    `json:"progress"`              // 处理进度（0-100）
	FileName   string `json:"filename"`              // 文件名
	Error      string `json:"error,omitempty"`       // 错误信息（如果有）
	ChunkCount int    `json:"chunk_count,omitempty"` // 分块数量（处理完成后）
	Summary    string `json:"summary,omitempty"`     // 文档摘要（处理完成后）
	Title      string `json:"title,omitempty"`       // 生成的标题（处理完成后）
	CreatedAt  string `json:"created_at"`            // 创建时间
	UpdatedAt  string `json:"updated_at"`            // 更新时间
}

// DocumentInfo 文档信息
type DocumentInfo struct {
	FileID     string    `json:"file_id"`     // 文件ID
	FileName   string    `json:"filename"`    // 文件名
	Status     string    `json:"status"`      // 状态
	Tags       string    `json:"tags"`        // 标签
	Title      string    `json:"title"`       // 生成的标题
	UploadTime time.Time `json:"upload_time"` // 上传时间
	ChunkCount int       `json:"chunk_count"` // 分块数量
}

// DocumentListResponse 文档列表响应
type DocumentListResponse struct {
	Total     int64          `json:"total"`     // 总数量
	Page      int            `json:"page"`      // 当前页码
	PageSize  int            `json:"page_size"` // 每页大小
	Documents []DocumentInfo `json:"documents"` // 文档列表
}

// DocumentDeleteResponse 文档删除响应
type DocumentDeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	FileID  string `json:"file_id"` // 文件ID
}

// CreateChatResponse 创建会话响应
type CreateChatResponse struct {
	SessionID  string    `json:"session_id"`            // 会话ID
	Title      string    `json:"title"`                 // 会话标题
	DocumentID string    `json:"document_id,omitempty"` // 绑定的文档ID
	CreatedAt  time.Time `json:"created_at"`            // 创建时间
}

// MessageInfo 消息信息
type MessageInfo struct {
	ID        uint      `json:"id"`         // 消息ID
	Role      string    `json:"role"`       // 消息角色
	Content   string    `json:"content"`    // 消息内容
	CreatedAt time.Time `json:"created_at"` // 创建时间
}

// SendMessageResponse 发送消息响应
type SendMessageResponse struct {
	SessionID string        `json:"session_id"`     // 会话ID
	Reply     string        `json:"reply"`          // 助手回复
	Deck      *DeckResponse `json:"deck,omitempty"` // 生成的大纲（如果本轮生成了）
}

// ChatHistoryResponse 聊天历史响应
type ChatHistoryResponse struct {
	SessionID string        `json:"session_id"` // 会话ID
	Title     string        `json:"title"`      // 会话标题
	Total     int64         `json:"total"`      // 消息总数
	Messages  []MessageInfo `json:"messages"`   // 消息列表
}

// ChatInfo 会话信息
type ChatInfo struct {
	SessionID  string    `json:"session_id"`            // 会话ID
	Title      string    `json:"title"`                 // 会话标题
	DocumentID string    `json:"document_id,omitempty"` // 绑定的文档ID
	CreatedAt  time.Time `json:"created_at"`            // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`            // 更新时间
}

// ChatListResponse 会话列表响应
type ChatListResponse struct {
	Total    int64      `json:"total"`     // 总数量
	Page     int        `json:"page"`      // 当前页码
	PageSize int        `json:"page_size"` // 每页大小
	Chats    []ChatInfo `json:"chats"`     // 会话列表
}

// DeleteChatResponse 删除会话响应
type DeleteChatResponse struct {
	Success   bool   `json:"success"`    // 是否成功
	SessionID string `json:"session_id"` // 会话ID
}

// SlideInfo 幻灯片信息
type SlideInfo struct {
	Title       string `json:"title"`       // 幻灯片标题
	Description string `json:"description"` // 幻灯片正文
}

// DeckResponse 大纲响应
type DeckResponse struct {
	DeckID    string      `json:"deck_id"`             // 大纲ID
	SessionID string      `json:"session_id"`          // 会话ID
	Title     string      `json:"title"`               // 演示文稿标题
	Revision  int         `json:"revision"`            // 修订版本号
	Slides    []SlideInfo `json:"slides"`              // 幻灯片列表
	FilePath  string      `json:"file_path,omitempty"` // 渲染产物路径（渲染后）
	CreatedAt time.Time   `json:"created_at"`          // 创建时间
}

// DeckRenderResponse 大纲渲染响应
// 同步渲染返回文件路径，异步渲染返回任务ID
type DeckRenderResponse struct {
	SessionID string `json:"session_id"`        // 会话ID
	FilePath  string `json:"file_path,omitempty"` // 渲染产物路径
	TaskID    string `json:"task_id,omitempty"`   // 异步渲染任务ID
	Status    string `json:"status,omitempty"`    // 异步任务状态
}
