package model

import (
	"mime/multipart"
	"time"
)

// 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// DocumentUploadRequest 文档上传请求
type DocumentUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`      // 文件对象
	Tags string                `form:"tags" json:"tags" binding:"omitempty"` // 文档标签，逗号分隔
}

// DocumentStatusRequest 文档状态查询请求
type DocumentStatusRequest struct {
	ID string `uri:"id" binding:"required"` // 文档ID
}

// DocumentListRequest 文档列表请求
type DocumentListRequest struct {
	PaginationRequest
	StartTime *time.Time `form:"start_time" json:"start_time" binding:"omitempty"` // 开始时间
	EndTime   *time.Time `form:"end_time" json:"end_time" binding:"omitempty"`     // 结束时间
	Status    string     `form:"status" json:"status" binding:"omitempty"`         // 文档状态
	Tags      string     `form:"tags" json:"tags" binding:"omitempty"`             // 标签过滤
}

// DocumentDeleteRequest 文档删除请求
type DocumentDeleteRequest struct {
	ID string `uri:"id" binding:"required"` // 文档ID
}

// CreateChatRequest 创建聊天会话请求
type CreateChatRequest struct {
	Title      string `json:"title,omitempty"`       // 会话标题，可选
	DocumentID string `json:"document_id,omitempty"` // 绑定的文档ID，可选
}

// SendMessageRequest 发送聊天消息请求
type SendMessageRequest struct {
	SessionID string `uri:"session_id" binding:"required"` // 会话ID
	Content   string `json:"content" binding:"required"`   // 消息内容
}

// GetChatHistoryRequest 获取聊天历史请求
type GetChatHistoryRequest struct {
	SessionID         string `uri:"session_id" binding:"required"` // 会话ID
	PaginationRequest        // 嵌入分页请求
}

// ChatListRequest 聊天会话列表请求
type ChatListRequest struct {
	PaginationRequest
	DocumentID string `form:"document_id" json:"document_id,omitempty"` // 文档ID过滤
	Title      string `form:"title" json:"title,omitempty"`             // 标题模糊过滤
}

// RenameChatRequest 重命名聊天会话请求
type RenameChatRequest struct {
	SessionID string `uri:"session_id" binding:"required"` // 会话ID
	Title     string `json:"title" binding:"required"`     // 新标题
}

// DeleteChatRequest 删除聊天会话请求
type DeleteChatRequest struct {
	SessionID string `uri:"session_id" binding:"required"` // 会话ID
}

// DeckFeedbackRequest 大纲修订请求
type DeckFeedbackRequest struct {
	SessionID string `uri:"session_id" binding:"required"` // 会话ID
	Feedback  string `json:"feedback" binding:"required"`  // 修改意见
	Title     string `json:"title,omitempty"`              // 可选的标题覆盖
}

// DeckRenderRequest 大纲渲染请求
type DeckRenderRequest struct {
	SessionID       string  `uri:"session_id" binding:"required"` // 会话ID
	FontFamily      string  `json:"font_family,omitempty"`        // 字体
	TitleSize       float64 `json:"title_size,omitempty"`         // 标题字号
	TextSize        float64 `json:"text_size,omitempty"`          // 正文字号
	TitleColor      string  `json:"title_color,omitempty"`        // 标题颜色，十六进制
	TextColor       string  `json:"text_color,omitempty"`         // 正文颜色，十六进制
	BackgroundColor string  `json:"background_color,omitempty"`   // 背景颜色，十六进制
	Async           bool    `json:"async,omitempty"`              // 是否异步渲染
}

// DeckDownloadRequest 大纲下载请求
type DeckDownloadRequest struct {
	SessionID string `uri:"session_id" binding:"required"` // 会话ID
}
