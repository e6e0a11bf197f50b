package taskqueue

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DocumentProcessFunc 文档处理函数
// 由服务层注入，避免队列包反向依赖业务逻辑
type DocumentProcessFunc func(ctx context.Context, payload DocumentProcessPayload) error

// DocumentProcessHandler 文档处理任务的队列处理器
type DocumentProcessHandler struct {
	process DocumentProcessFunc
	logger  *logrus.Logger
}

// NewDocumentProcessHandler 创建文档处理任务处理器
func NewDocumentProcessHandler(process DocumentProcessFunc, logger *logrus.Logger) *DocumentProcessHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &DocumentProcessHandler{
		process: process,
		logger:  logger,
	}
}

// ProcessTask 处理文档处理任务
func (h *DocumentProcessHandler) ProcessTask(ctx context.Context, task *Task) error {
	var payload DocumentProcessPayload
	if err := UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal document process payload: %w", err)
	}

	if payload.DocumentID == "" {
		return ErrInvalidPayload
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"document_id": payload.DocumentID,
		"file_name":   payload.FileName,
	}).Info("Processing document task")

	if err := h.process(ctx, payload); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"task_id":     task.ID,
			"document_id": payload.DocumentID,
		}).Error("Document task failed")
		return err
	}

	return nil
}

// GetTaskTypes 返回支持的任务类型
func (h *DocumentProcessHandler) GetTaskTypes() []TaskType {
	return []TaskType{TaskDocumentProcess}
}

// DeckRenderFunc 大纲渲染函数
type DeckRenderFunc func(ctx context.Context, payload DeckRenderPayload) (string, error)

// DeckRenderHandler 大纲渲染任务的队列处理器
type DeckRenderHandler struct {
	render DeckRenderFunc
	logger *logrus.Logger
}

// NewDeckRenderHandler 创建大纲渲染任务处理器
func NewDeckRenderHandler(render DeckRenderFunc, logger *logrus.Logger) *DeckRenderHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &DeckRenderHandler{
		render: render,
		logger: logger,
	}
}

// ProcessTask 处理大纲渲染任务
func (h *DeckRenderHandler) ProcessTask(ctx context.Context, task *Task) error {
	var payload DeckRenderPayload
	if err := UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal deck render payload: %w", err)
	}

	if payload.SessionID == "" {
		return ErrInvalidPayload
	}

	filePath, err := h.render(ctx, payload)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"task_id":    task.ID,
			"session_id": payload.SessionID,
		}).Error("Deck render task failed")
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":    task.ID,
		"session_id": payload.SessionID,
		"file_path":  filePath,
	}).Info("Deck rendered")

	return nil
}

// GetTaskTypes 返回支持的任务类型
func (h *DeckRenderHandler) GetTaskTypes() []TaskType {
	return []TaskType{TaskDeckRender}
}
