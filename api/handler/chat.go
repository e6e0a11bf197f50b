package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-ppt-system/api/middleware"
	"github.com/fyerfyer/doc-ppt-system/api/model"
	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/fyerfyer/doc-ppt-system/internal/services"
)

// ChatHandler 处理聊天相关的API请求
type ChatHandler struct {
	chatService *services.ChatService // 聊天服务
	logger      *logrus.Logger        // 日志记录器
}

// NewChatHandler 创建新的聊天处理器
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      middleware.GetLogger(),
	}
}

// CreateChat 创建新的聊天会话
// POST /api/chats
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req model.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid create chat request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	session, err := h.chatService.CreateSession(c.Request.Context(), req.Title, req.DocumentID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create chat session")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"创建聊天会话失败",
		))
		return
	}

	resp := model.CreateChatResponse{
		SessionID:  session.ID,
		Title:      session.Title,
		DocumentID: session.DocumentID,
		CreatedAt:  session.CreatedAt,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// SendMessage 向会话发送消息
// POST /api/chats/:session_id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的消息内容"))
		return
	}

	reply, err := h.chatService.SendMessage(c.Request.Context(), req.SessionID, req.Content)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to process chat message")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"处理消息失败",
		))
		return
	}

	resp := model.SendMessageResponse{
		SessionID: req.SessionID,
		Reply:     reply.Reply,
	}

	if reply.Deck != nil {
		deckResp, err := deckToResponse(reply.Deck)
		if err != nil {
			h.logger.WithError(err).WithField("session_id", req.SessionID).Warn("Failed to decode generated deck")
		} else {
			resp.Deck = deckResp
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetChatHistory 获取聊天历史记录
// GET /api/chats/:session_id
func (h *ChatHandler) GetChatHistory(c *gin.Context) {
	var req model.GetChatHistoryRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}
	if err := c.ShouldBindQuery(&req.PaginationRequest); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的分页参数"))
		return
	}

	session, err := h.chatService.GetSession(req.SessionID)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to get chat session")
		c.JSON(http.StatusNotFound, model.NewErrorResponse(
			http.StatusNotFound,
			"聊天会话不存在",
		))
		return
	}

	offset := (req.GetPage() - 1) * req.GetPageSize()
	messages, total, err := h.chatService.GetMessages(req.SessionID, offset, req.GetPageSize())
	if err != nil {
		h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to get chat messages")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取聊天消息失败",
		))
		return
	}

	messageInfos := make([]model.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		messageInfos = append(messageInfos, model.MessageInfo{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	resp := model.ChatHistoryResponse{
		SessionID: session.ID,
		Title:     session.Title,
		Total:     total,
		Messages:  messageInfos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListChats 获取聊天会话列表
// GET /api/chats
func (h *ChatHandler) ListChats(c *gin.Context) {
	var req model.ChatListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	filters := make(map[string]interface{})
	if req.DocumentID != "" {
		filters["document_id"] = req.DocumentID
	}
	if req.Title != "" {
		filters["title"] = req.Title
	}

	offset := (req.GetPage() - 1) * req.GetPageSize()
	sessions, total, err := h.chatService.ListSessions(offset, req.GetPageSize(), filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list chat sessions")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取会话列表失败",
		))
		return
	}

	chatInfos := make([]model.ChatInfo, 0, len(sessions))
	for _, session := range sessions {
		chatInfos = append(chatInfos, model.ChatInfo{
			SessionID:  session.ID,
			Title:      session.Title,
			DocumentID: session.DocumentID,
			CreatedAt:  session.CreatedAt,
			UpdatedAt:  session.UpdatedAt,
		})
	}

	resp := model.ChatListResponse{
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
		Chats:    chatInfos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// RenameChat 重命名聊天会话
// PUT /api/chats/:session_id/title
func (h *ChatHandler) RenameChat(c *gin.Context) {
	var req model.RenameChatRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的标题"))
		return
	}

	if err := h.chatService.RenameSession(req.SessionID, req.Title); err != nil {
		h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to rename chat session")
		c.JSON(http.StatusNotFound, model.NewErrorResponse(
			http.StatusNotFound,
			"重命名会话失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{
		"session_id": req.SessionID,
		"title":      req.Title,
	}))
}

// DeleteChat 删除聊天会话
// DELETE /api/chats/:session_id
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	var req model.DeleteChatRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}

	if err := h.chatService.DeleteSession(req.SessionID); err != nil {
		h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to delete chat session")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除会话失败",
		))
		return
	}

	resp := model.DeleteChatResponse{
		Success:   true,
		SessionID: req.SessionID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// deckToResponse 将大纲模型转换为响应格式
func deckToResponse(deck *models.Deck) (*model.DeckResponse, error) {
	o, err := services.DeckToOutline(deck)
	if err != nil {
		return nil, err
	}

	slides := make([]model.SlideInfo, 0, len(o.Slides))
	for _, slide := range o.Slides {
		slides = append(slides, model.SlideInfo{
			Title:       slide.Title,
			Description: slide.Description,
		})
	}

	return &model.DeckResponse{
		DeckID:    deck.ID,
		SessionID: deck.SessionID,
		Title:     deck.Title,
		Revision:  deck.Revision,
		Slides:    slides,
		FilePath:  deck.FilePath,
		CreatedAt: deck.CreatedAt,
	}, nil
}
