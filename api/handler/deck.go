package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-ppt-system/api/middleware"
	"github.com/fyerfyer/doc-ppt-system/api/model"
	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/fyerfyer/doc-ppt-system/internal/renderer"
	"github.com/fyerfyer/doc-ppt-system/internal/services"
)

// DeckHandler 处理大纲相关的API请求
type DeckHandler struct {
	chatService *services.ChatService // 聊天服务，持有大纲数据
	deckService *services.DeckService // 大纲渲染服务
	logger      *logrus.Logger        // 日志记录器
}

// NewDeckHandler 创建新的大纲处理器
func NewDeckHandler(chatService *services.ChatService, deckService *services.DeckService) *DeckHandler {
	return &DeckHandler{
		chatService: chatService,
		deckService: deckService,
		logger:      middleware.GetLogger(),
	}
}

// GetCurrentDeck 获取会话当前的大纲
// GET /api/chats/:session_id/deck
func (h *DeckHandler) GetCurrentDeck(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}

	deck, err := h.chatService.GetCurrentDeck(sessionID)
	if err != nil {
		if errors.Is(err, models.ErrDeckNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "会话尚未生成大纲"))
			return
		}
		h.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to get current deck")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取大纲失败",
		))
		return
	}

	resp, err := deckToResponse(deck)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to decode deck")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"解析大纲失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ApplyFeedback 根据反馈修订大纲
// POST /api/chats/:session_id/deck/feedback
func (h *DeckHandler) ApplyFeedback(c *gin.Context) {
	var req model.DeckFeedbackRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的反馈内容"))
		return
	}

	deck, err := h.chatService.ApplyFeedback(c.Request.Context(), req.SessionID, req.Feedback, req.Title)
	if err != nil {
		if errors.Is(err, models.ErrDeckNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "会话尚未生成大纲"))
			return
		}
		h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to apply deck feedback")
		// 修订失败时当前大纲保持不变，客户端可以重试
		c.JSON(http.StatusBadGateway, model.NewErrorResponse(
			http.StatusBadGateway,
			"修订大纲失败，当前大纲保持不变",
		))
		return
	}

	resp, err := deckToResponse(deck)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to decode revised deck")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"解析大纲失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// RenderDeck 将会话当前大纲渲染为PDF
// POST /api/chats/:session_id/deck/render
func (h *DeckHandler) RenderDeck(c *gin.Context) {
	var req model.DeckRenderRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}
	// 渲染请求体可以为空，全部使用默认样式
	_ = c.ShouldBindJSON(&req)

	// 异步渲染只做任务入队，结果通过任务状态查询
	if req.Async {
		taskID, err := h.deckService.EnqueueRender(c.Request.Context(), req.SessionID)
		if err != nil {
			if errors.Is(err, models.ErrDeckNotFound) {
				c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "会话尚未生成大纲"))
				return
			}
			h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to enqueue deck render")
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"渲染任务入队失败",
			))
			return
		}

		c.JSON(http.StatusOK, model.NewSuccessResponse(model.DeckRenderResponse{
			SessionID: req.SessionID,
			TaskID:    taskID,
			Status:    "pending",
		}))
		return
	}

	styleOverride := buildStyleOverride(&req)

	filePath, err := h.deckService.RenderSession(c.Request.Context(), req.SessionID, styleOverride)
	if err != nil {
		if errors.Is(err, models.ErrDeckNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "会话尚未生成大纲"))
			return
		}
		h.logger.WithError(err).WithField("session_id", req.SessionID).Error("Failed to render deck")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"渲染大纲失败",
		))
		return
	}

	resp := model.DeckRenderResponse{
		SessionID: req.SessionID,
		FilePath:  filePath,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DownloadDeck 下载渲染好的PDF文件
// GET /api/chats/:session_id/deck/download
func (h *DeckHandler) DownloadDeck(c *gin.Context) {
	var req model.DeckDownloadRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的会话ID"))
		return
	}

	filePath, err := h.deckService.DeckFilePath(req.SessionID)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", req.SessionID).Warn("Deck file not available")
		c.JSON(http.StatusNotFound, model.NewErrorResponse(
			http.StatusNotFound,
			"大纲尚未渲染或文件不存在",
		))
		return
	}

	c.FileAttachment(filePath, filepath.Base(filePath))
}

// buildStyleOverride 根据请求参数构建样式覆盖
// 所有样式字段都为空时返回nil，使用服务默认样式
func buildStyleOverride(req *model.DeckRenderRequest) *renderer.StyleConfig {
	if req.FontFamily == "" && req.TitleColor == "" && req.TextColor == "" &&
		req.BackgroundColor == "" && req.TitleSize <= 0 && req.TextSize <= 0 {
		return nil
	}

	style := renderer.DefaultStyle()
	if req.FontFamily != "" {
		style.FontFamily = req.FontFamily
	}
	if req.TitleSize > 0 {
		style.TitleSize = req.TitleSize
	}
	if req.TextSize > 0 {
		style.TextSize = req.TextSize
	}
	if req.TitleColor != "" {
		style.TitleColor = req.TitleColor
	}
	if req.TextColor != "" {
		style.TextColor = req.TextColor
	}
	if req.BackgroundColor != "" {
		style.BackgroundColor = req.BackgroundColor
	}

	return &style
}
