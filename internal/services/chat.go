package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/fyerfyer/doc-ppt-system/internal/llm"
	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/fyerfyer/doc-ppt-system/internal/outline"
	"github.com/fyerfyer/doc-ppt-system/internal/repository"
)

// 触发大纲生成的关键词
var outlineKeywords = []string{"ppt", "slides", "presentation"}

// ChatReply 聊天回复
// 消息触发大纲生成时Deck非空
type ChatReply struct {
	Reply string       // 助手回复文本
	Deck  *models.Deck // 生成的大纲记录，未触发时为nil
}

// ChatService 聊天服务
// 根据消息内容在文档问答、自由对话和大纲生成之间路由
type ChatService struct {
	client     llm.Client                    // 大模型客户端
	outlineSvc *OutlineService               // 大纲服务
	chatRepo   repository.ChatRepository     // 会话仓储
	docRepo    repository.DocumentRepository // 文档仓储
	deckRepo   repository.DeckRepository     // 大纲仓储
	logger     *logrus.Logger                // 日志记录器
}

// ChatOption 聊天服务配置选项
type ChatOption func(*ChatService)

// WithChatLogger 设置日志记录器
func WithChatLogger(logger *logrus.Logger) ChatOption {
	return func(s *ChatService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewChatService 创建聊天服务
func NewChatService(
	client llm.Client,
	outlineSvc *OutlineService,
	chatRepo repository.ChatRepository,
	docRepo repository.DocumentRepository,
	deckRepo repository.DeckRepository,
	opts ...ChatOption,
) *ChatService {
	srv := &ChatService{
		client:     client,
		outlineSvc: outlineSvc,
		chatRepo:   chatRepo,
		docRepo:    docRepo,
		deckRepo:   deckRepo,
		logger:     logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// CreateSession 创建聊天会话，可选绑定文档
func (s *ChatService) CreateSession(ctx context.Context, title string, documentID string) (*models.ChatSession, error) {
	if documentID != "" {
		if _, err := s.docRepo.GetByID(documentID); err != nil {
			return nil, fmt.Errorf("failed to bind document: %w", err)
		}
	}

	if strings.TrimSpace(title) == "" {
		title = "New Chat"
	}

	session := &models.ChatSession{
		Title:      title,
		DocumentID: documentID,
	}
	if err := s.chatRepo.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// SendMessage 处理一条用户消息并返回助手回复
// 绑定文档且消息提到ppt/slides/presentation时生成大纲；
// 绑定文档的普通提问只基于文档摘要回答；无文档时自由对话
func (s *ChatService) SendMessage(ctx context.Context, sessionID string, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	session, err := s.chatRepo.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	// 记录用户消息
	if err := s.chatRepo.CreateMessage(&models.ChatMessage{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   message,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to persist user message")
	}

	summary, title := s.documentContext(session)

	var reply *ChatReply
	if summary != "" {
		reply, err = s.handleDocumentMessage(ctx, session, summary, title, message)
	} else {
		reply, err = s.handleFreeMessage(ctx, session, message)
	}
	if err != nil {
		return nil, err
	}

	// 记录助手回复
	if err := s.chatRepo.CreateMessage(&models.ChatMessage{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   reply.Reply,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to persist assistant message")
	}

	return reply, nil
}

// handleDocumentMessage 处理已绑定文档的会话消息
func (s *ChatService) handleDocumentMessage(ctx context.Context, session *models.ChatSession, summary, title, message string) (*ChatReply, error) {
	if containsOutlineKeyword(message) {
		// 用文档摘要加用户指令生成大纲，标题沿用文档标题
		slides, err := s.outlineSvc.GenerateOutline(ctx, summary+"\n\n"+message)
		if err != nil {
			return nil, err
		}

		deck, err := s.saveDeck(session, title, slides)
		if err != nil {
			return nil, err
		}

		return &ChatReply{
			Reply: "Generated PPT outline from document.",
			Deck:  deck,
		}, nil
	}

	// 仅基于文档摘要回答
	prompt := fmt.Sprintf("Answer using only this doc:\n%s\n\nQ:%s", summary, message)
	resp, err := s.client.Generate(ctx, prompt)
	if err != nil {
		// 对话降级为错误标记回复，不中断会话
		return &ChatReply{Reply: llm.ErrorMarker(err)}, nil
	}

	return &ChatReply{Reply: resp.Text}, nil
}

// handleFreeMessage 处理未绑定文档的自由对话消息
func (s *ChatService) handleFreeMessage(ctx context.Context, session *models.ChatSession, message string) (*ChatReply, error) {
	if strings.Contains(strings.ToLower(message), "ppt") {
		slides, err := s.outlineSvc.GenerateOutline(ctx, message)
		if err != nil {
			return nil, err
		}

		title := outline.CleanTitle(s.outlineSvc.GenerateTitle(ctx, message))
		deck, err := s.saveDeck(session, title, slides)
		if err != nil {
			return nil, err
		}

		return &ChatReply{
			Reply: fmt.Sprintf("PPT outline generated! Title: %s", title),
			Deck:  deck,
		}, nil
	}

	resp, err := s.client.Generate(ctx, message)
	if err != nil {
		return &ChatReply{Reply: llm.ErrorMarker(err)}, nil
	}

	return &ChatReply{Reply: resp.Text}, nil
}

// ApplyFeedback 用用户反馈修订会话当前的大纲
// 修订失败时原大纲保持不变，由调用方提示用户重试
func (s *ChatService) ApplyFeedback(ctx context.Context, sessionID string, feedback string, titleOverride string) (*models.Deck, error) {
	current, err := s.deckRepo.GetLatestBySession(sessionID)
	if err != nil {
		return nil, err
	}

	currentOutline, err := DeckToOutline(current)
	if err != nil {
		return nil, fmt.Errorf("failed to decode current outline: %w", err)
	}

	revised, err := s.outlineSvc.ReviseOutline(ctx, currentOutline, feedback, titleOverride)
	if err != nil {
		return nil, err
	}

	slidesJSON, err := json.Marshal(revised.Slides)
	if err != nil {
		return nil, fmt.Errorf("failed to encode revised slides: %w", err)
	}

	deck := &models.Deck{
		SessionID:  current.SessionID,
		DocumentID: current.DocumentID,
		Title:      revised.Title,
		Slides:     datatypes.JSON(slidesJSON),
		Revision:   current.Revision + 1,
	}
	if err := s.deckRepo.Create(deck); err != nil {
		return nil, fmt.Errorf("failed to save revised deck: %w", err)
	}

	return deck, nil
}

// GetCurrentDeck 获取会话当前的大纲
func (s *ChatService) GetCurrentDeck(sessionID string) (*models.Deck, error) {
	return s.deckRepo.GetLatestBySession(sessionID)
}

// GetMessages 获取会话消息列表
func (s *ChatService) GetMessages(sessionID string, offset, limit int) ([]*models.ChatMessage, int64, error) {
	return s.chatRepo.GetMessages(sessionID, offset, limit)
}

// GetSession 获取会话信息
func (s *ChatService) GetSession(sessionID string) (*models.ChatSession, error) {
	return s.chatRepo.GetSession(sessionID)
}

// ListSessions 获取会话列表
func (s *ChatService) ListSessions(offset, limit int, filters map[string]interface{}) ([]*models.ChatSession, int64, error) {
	return s.chatRepo.ListSessions(offset, limit, filters)
}

// DeleteSession 删除会话及其消息和大纲
func (s *ChatService) DeleteSession(sessionID string) error {
	return s.chatRepo.DeleteSession(sessionID)
}

// RenameSession 重命名会话
func (s *ChatService) RenameSession(sessionID string, title string) error {
	session, err := s.chatRepo.GetSession(sessionID)
	if err != nil {
		return err
	}

	session.Title = title
	return s.chatRepo.UpdateSession(session)
}

// saveDeck 保存新生成的大纲，版本号接在会话现有大纲之后
func (s *ChatService) saveDeck(session *models.ChatSession, title string, slides []outline.Slide) (*models.Deck, error) {
	slidesJSON, err := json.Marshal(slides)
	if err != nil {
		return nil, fmt.Errorf("failed to encode slides: %w", err)
	}

	revision := 1
	if prev, err := s.deckRepo.GetLatestBySession(session.ID); err == nil {
		revision = prev.Revision + 1
	}

	deck := &models.Deck{
		SessionID:  session.ID,
		DocumentID: session.DocumentID,
		Title:      outline.CleanTitle(title),
		Slides:     datatypes.JSON(slidesJSON),
		Revision:   revision,
	}
	if err := s.deckRepo.Create(deck); err != nil {
		return nil, fmt.Errorf("failed to save deck: %w", err)
	}

	return deck, nil
}

// documentContext 取会话绑定文档的摘要和标题
// 文档缺失或尚无摘要时返回空值
func (s *ChatService) documentContext(session *models.ChatSession) (summary, title string) {
	if session.DocumentID == "" {
		return "", ""
	}

	doc, err := s.docRepo.GetByID(session.DocumentID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load session document")
		return "", ""
	}

	return doc.Summary, doc.Title
}

// containsOutlineKeyword 判断消息是否包含大纲生成关键词
func containsOutlineKeyword(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range outlineKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DeckToOutline 将大纲记录解码为大纲结构
func DeckToOutline(deck *models.Deck) (*outline.Outline, error) {
	var slides []outline.Slide
	if len(deck.Slides) > 0 {
		if err := json.Unmarshal(deck.Slides, &slides); err != nil {
			return nil, err
		}
	}

	return &outline.Outline{
		Title:  deck.Title,
		Slides: slides,
	}, nil
}
