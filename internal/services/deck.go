package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-ppt-system/internal/renderer"
	"github.com/fyerfyer/doc-ppt-system/internal/repository"
	"github.com/fyerfyer/doc-ppt-system/pkg/taskqueue"
)

// DeckService 演示文稿渲染服务
// 将会话当前大纲渲染为可下载的文件
type DeckService struct {
	deckRepo  repository.DeckRepository // 大纲仓储
	outputDir string                    // 渲染产物输出目录
	style     renderer.StyleConfig      // 默认渲染样式
	queue     taskqueue.Queue           // 任务队列，异步渲染用
	logger    *logrus.Logger            // 日志记录器
}

// DeckOption 渲染服务配置选项
type DeckOption func(*DeckService)

// WithDeckStyle 设置默认渲染样式
func WithDeckStyle(style renderer.StyleConfig) DeckOption {
	return func(s *DeckService) {
		s.style = style
	}
}

// WithDeckQueue 设置任务队列，启用异步渲染
func WithDeckQueue(queue taskqueue.Queue) DeckOption {
	return func(s *DeckService) {
		s.queue = queue
	}
}

// WithDeckLogger 设置日志记录器
func WithDeckLogger(logger *logrus.Logger) DeckOption {
	return func(s *DeckService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDeckService 创建渲染服务
func NewDeckService(deckRepo repository.DeckRepository, outputDir string, opts ...DeckOption) *DeckService {
	srv := &DeckService{
		deckRepo:  deckRepo,
		outputDir: outputDir,
		style:     renderer.DefaultStyle(),
		logger:    logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// RenderSession 渲染会话当前的大纲并返回文件路径
// styleOverride为nil时使用默认样式
func (s *DeckService) RenderSession(ctx context.Context, sessionID string, styleOverride *renderer.StyleConfig) (string, error) {
	deck, err := s.deckRepo.GetLatestBySession(sessionID)
	if err != nil {
		return "", err
	}

	o, err := DeckToOutline(deck)
	if err != nil {
		return "", fmt.Errorf("failed to decode outline: %w", err)
	}

	style := s.style
	if styleOverride != nil {
		style = *styleOverride
	}

	r := renderer.NewDeckRenderer(s.outputDir,
		renderer.WithStyle(style),
		renderer.WithLogger(s.logger),
	)

	path, err := r.Render(o)
	if err != nil {
		return "", err
	}

	if err := s.deckRepo.UpdateFilePath(deck.ID, path); err != nil {
		s.logger.WithError(err).Warn("Failed to record deck file path")
	}

	return path, nil
}

// EnqueueRender 将会话当前大纲的渲染任务加入队列
// 返回任务ID，渲染结果通过文档任务状态接口查询
func (s *DeckService) EnqueueRender(ctx context.Context, sessionID string) (string, error) {
	if s.queue == nil {
		return "", errors.New("task queue not configured")
	}

	deck, err := s.deckRepo.GetLatestBySession(sessionID)
	if err != nil {
		return "", err
	}

	payload := taskqueue.DeckRenderPayload{
		SessionID: sessionID,
		DeckID:    deck.ID,
	}

	taskID, err := s.queue.Enqueue(ctx, taskqueue.TaskDeckRender, sessionID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue render task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"task_id":    taskID,
	}).Info("Deck render task enqueued")

	return taskID, nil
}

// DeckFilePath 返回会话最新大纲的渲染产物路径
// 未渲染或文件已不存在时返回错误
func (s *DeckService) DeckFilePath(sessionID string) (string, error) {
	deck, err := s.deckRepo.GetLatestBySession(sessionID)
	if err != nil {
		return "", err
	}

	if deck.FilePath == "" {
		return "", fmt.Errorf("deck has not been rendered yet")
	}

	if _, err := os.Stat(deck.FilePath); err != nil {
		return "", fmt.Errorf("deck file missing: %w", err)
	}

	return deck.FilePath, nil
}
