package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-ppt-system/internal/document"
	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/fyerfyer/doc-ppt-system/internal/outline"
	"github.com/fyerfyer/doc-ppt-system/internal/repository"
	"github.com/fyerfyer/doc-ppt-system/pkg/storage"
	"github.com/fyerfyer/doc-ppt-system/pkg/taskqueue"
)

// ErrNoReadableText 文档解析后没有可用文本
var ErrNoReadableText = errors.New("no readable text found in the document")

// DocumentService 文档服务
// 负责协调文档上传、解析、摘要和标题生成
type DocumentService struct {
	storage       storage.Storage               // 文件存储服务
	splitter      document.Splitter             // 文本分块器
	summarySvc    *SummaryService               // 摘要服务
	outlineSvc    *OutlineService               // 大纲服务，标题生成用
	repo          repository.DocumentRepository // 文档元数据存储
	statusManager *DocumentStatusManager        // 文档状态管理器
	taskQueue     taskqueue.Queue               // 任务队列
	asyncEnabled  bool                          // 是否启用异步处理
	timeout       time.Duration                 // 处理超时时间
	logger        *logrus.Logger                // 日志记录器
}

// DocumentOption 文档服务配置选项
type DocumentOption func(*DocumentService)

// NewDocumentService 创建一个新的文档服务
func NewDocumentService(
	store storage.Storage,
	splitter document.Splitter,
	summarySvc *SummaryService,
	outlineSvc *OutlineService,
	opts ...DocumentOption,
) *DocumentService {
	srv := &DocumentService{
		storage:      store,
		splitter:     splitter,
		summarySvc:   summarySvc,
		outlineSvc:   outlineSvc,
		timeout:      time.Minute * 10,
		logger:       logrus.New(),
		asyncEnabled: false,
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithTimeout 设置处理超时时间
func WithTimeout(timeout time.Duration) DocumentOption {
	return func(s *DocumentService) {
		s.timeout = timeout
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) DocumentOption {
	return func(s *DocumentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDocumentRepository 设置文档仓储
func WithDocumentRepository(repo repository.DocumentRepository) DocumentOption {
	return func(s *DocumentService) {
		s.repo = repo
	}
}

// WithStatusManager 设置状态管理器
func WithStatusManager(manager *DocumentStatusManager) DocumentOption {
	return func(s *DocumentService) {
		s.statusManager = manager
	}
}

// WithTaskQueue 设置任务队列
func WithTaskQueue(queue taskqueue.Queue) DocumentOption {
	return func(s *DocumentService) {
		s.taskQueue = queue
		s.asyncEnabled = queue != nil
	}
}

// WithAsyncProcessing 设置是否启用异步处理
func WithAsyncProcessing(enabled bool) DocumentOption {
	return func(s *DocumentService) {
		s.asyncEnabled = enabled
	}
}

// Init 初始化文档服务
// 确保必要的依赖都已设置
func (s *DocumentService) Init() error {
	if s.repo == nil {
		s.repo = repository.NewDocumentRepository()
	}

	if s.statusManager == nil {
		s.statusManager = NewDocumentStatusManager(s.repo, s.logger)
	}

	return nil
}

// UploadDocument 保存上传的文件并创建文档记录
// 返回新文档的ID，处理需另行触发
func (s *DocumentService) UploadDocument(ctx context.Context, reader io.Reader, fileName string, fileSize int64, tags string) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	if !document.IsSupportedFileType(fileName) {
		return "", document.ErrUnsupportedType
	}

	info, err := s.storage.Save(reader, fileName)
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	docID := uuid.New().String()
	if err := s.statusManager.MarkAsUploaded(ctx, docID, fileName, info.Path, fileSize, tags); err != nil {
		return "", fmt.Errorf("failed to create document record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"doc_id":   docID,
		"filename": fileName,
	}).Info("Document uploaded")

	return docID, nil
}

// ProcessUploaded 根据文档记录触发处理
// 从文档元数据中取出存储路径后进入处理流程
func (s *DocumentService) ProcessUploaded(ctx context.Context, docID string) error {
	if err := s.Init(); err != nil {
		return err
	}

	doc, err := s.statusManager.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to load document record: %w", err)
	}

	return s.ProcessDocument(ctx, docID, doc.FilePath)
}

// ProcessDocument 处理文档（解析、摘要、标题生成）
func (s *DocumentService) ProcessDocument(ctx context.Context, fileID string, filePath string) error {
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"file_id":   fileID,
		"file_path": filePath,
	}).Info("Starting document processing")

	if fileID == "" {
		return errors.New("fileID cannot be empty")
	}
	if filePath == "" {
		return errors.New("filePath cannot be empty")
	}

	// 启用异步处理且任务队列已配置时走队列
	if s.asyncEnabled && s.taskQueue != nil {
		return s.processDocumentAsync(ctx, fileID, filePath)
	}

	return s.processDocumentSync(ctx, fileID, filePath)
}

// processDocumentAsync 异步处理文档
// 将任务加入队列并立即返回
func (s *DocumentService) processDocumentAsync(ctx context.Context, fileID string, filePath string) error {
	s.logger.WithFields(logrus.Fields{
		"file_id":   fileID,
		"file_path": filePath,
	}).Info("Enqueuing document for async processing")

	if err := s.statusManager.MarkAsProcessing(ctx, fileID); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as processing")
		// 继续处理，不中断
	}

	fileName := filepath.Base(filePath)
	payload := taskqueue.DocumentProcessPayload{
		DocumentID: fileID,
		FilePath:   filePath,
		FileName:   fileName,
		FileType:   fileTypeOf(fileName),
	}

	taskID, err := s.taskQueue.Enqueue(ctx, taskqueue.TaskDocumentProcess, fileID, payload)
	if err != nil {
		s.failDocument(ctx, fileID, fmt.Sprintf("failed to enqueue processing task: %v", err))
		return fmt.Errorf("failed to enqueue processing task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"file_id": fileID,
		"task_id": taskID,
	}).Info("Document processing task created successfully")

	return nil
}

// ProcessQueuedDocument 执行队列中的文档处理任务
// 由任务队列工作者调用，始终走同步流水线
func (s *DocumentService) ProcessQueuedDocument(ctx context.Context, payload taskqueue.DocumentProcessPayload) error {
	if err := s.Init(); err != nil {
		return err
	}

	if payload.DocumentID == "" || payload.FilePath == "" {
		return taskqueue.ErrInvalidPayload
	}

	return s.processDocumentSync(ctx, payload.DocumentID, payload.FilePath)
}

// processDocumentSync 同步处理文档
// 解析、摘要、标题生成依次执行
func (s *DocumentService) processDocumentSync(ctx context.Context, fileID string, filePath string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.statusManager.MarkAsProcessing(ctx, fileID); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as processing")
		// 继续处理，不中断
	}

	// 1. 解析文档文本
	if err := s.statusManager.EnterStage(ctx, fileID, models.StageParsing); err != nil {
		s.logger.WithError(err).Warn("Failed to update document stage")
	}

	text, err := s.parseDocument(filePath)
	if err != nil {
		s.failDocument(ctx, fileID, fmt.Sprintf("failed to parse document: %v", err))
		return fmt.Errorf("failed to parse document: %w", err)
	}

	// 解析结果为空视为软失败，不再进入摘要阶段
	if strings.TrimSpace(text) == "" {
		s.failDocument(ctx, fileID, ErrNoReadableText.Error())
		return ErrNoReadableText
	}

	if err := s.statusManager.UpdateProgress(ctx, fileID, 20); err != nil {
		s.logger.WithError(err).Warn("Failed to update document progress")
	}

	// 2. 生成摘要
	if err := s.statusManager.EnterStage(ctx, fileID, models.StageSummarizing); err != nil {
		s.logger.WithError(err).Warn("Failed to update document stage")
	}

	summary, err := s.summarySvc.Summarize(ctx, text)
	if err != nil {
		s.failDocument(ctx, fileID, fmt.Sprintf("failed to summarize document: %v", err))
		return fmt.Errorf("failed to summarize document: %w", err)
	}

	if err := s.statusManager.UpdateProgress(ctx, fileID, 80); err != nil {
		s.logger.WithError(err).Warn("Failed to update document progress")
	}

	// 3. 生成标题，失败降级为错误标记不中断流程
	if err := s.statusManager.EnterStage(ctx, fileID, models.StageTitling); err != nil {
		s.logger.WithError(err).Warn("Failed to update document stage")
	}

	title := outline.CleanTitle(s.outlineSvc.GenerateTitle(ctx, summary))

	// 4. 保存产出并标记完成
	chunkCount := s.countChunks(text)
	if err := s.statusManager.MarkAsCompleted(ctx, fileID, summary, title, chunkCount); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as completed")
		// 状态更新失败但处理已成功，不返回错误
	}

	s.logger.WithFields(logrus.Fields{
		"file_id":     fileID,
		"chunk_count": chunkCount,
		"title":       title,
	}).Info("Document processing completed successfully")

	return nil
}

// parseDocument 解析文档内容
func (s *DocumentService) parseDocument(filePath string) (string, error) {
	s.logger.WithField("file_path", filePath).Debug("Parsing document")

	// 首先尝试从存储获取文件
	fileID := filepath.Base(filePath)
	fileID = strings.TrimSuffix(fileID, filepath.Ext(fileID))

	reader, err := s.storage.Get(fileID)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to get file directly, trying with path")
		reader, err = s.storage.Get(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to get file from storage: %w", err)
		}
	}
	defer reader.Close()

	parser, err := document.ParserFactory(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create parser: %w", err)
	}

	content, err := parser.ParseReader(reader, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}

	return content, nil
}

// countChunks 统计文档分块数量
func (s *DocumentService) countChunks(text string) int {
	chunks, err := s.splitter.Split(text)
	if err != nil {
		return 0
	}
	return len(chunks)
}

// DeleteDocument 删除文档及其相关数据
func (s *DocumentService) DeleteDocument(ctx context.Context, fileID string) error {
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithField("file_id", fileID).Info("Deleting document")

	// 1. 从存储中删除文件
	if err := s.storage.Delete(fileID); err != nil {
		// 文件可能已被删除，记录错误但不中断流程
		s.logger.WithError(err).Warn("Failed to delete file from storage")
	}

	// 2. 删除文档记录
	if err := s.statusManager.DeleteDocument(ctx, fileID); err != nil {
		s.logger.WithError(err).Error("Failed to delete document record")
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	// 3. 如果任务队列已配置，删除相关任务
	if s.taskQueue != nil {
		tasks, err := s.taskQueue.GetTasksByDocument(ctx, fileID)
		if err == nil && len(tasks) > 0 {
			for _, task := range tasks {
				if err := s.taskQueue.DeleteTask(ctx, task.ID); err != nil {
					s.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to delete document task")
				}
			}
		}
	}

	s.logger.WithField("file_id", fileID).Info("Document deleted successfully")
	return nil
}

// GetDocumentInfo 获取文档信息
func (s *DocumentService) GetDocumentInfo(ctx context.Context, fileID string) (map[string]interface{}, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	doc, err := s.statusManager.GetDocument(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	info := map[string]interface{}{
		"file_id":    doc.ID,
		"filename":   doc.FileName,
		"status":     doc.Status,
		"created_at": doc.UploadedAt.Format(time.RFC3339),
		"updated_at": doc.UpdatedAt.Format(time.RFC3339),
		"size":       doc.FileSize,
		"progress":   doc.Progress,
	}

	if doc.CurrentStage != "" {
		info["stage"] = doc.CurrentStage
	}
	if doc.Error != "" {
		info["error"] = doc.Error
	}
	if doc.ProcessedAt != nil {
		info["processed_at"] = doc.ProcessedAt.Format(time.RFC3339)
	}
	if doc.Tags != "" {
		info["tags"] = doc.Tags
	}
	if doc.Summary != "" {
		info["summary"] = doc.Summary
	}
	if doc.Title != "" {
		info["title"] = doc.Title
	}

	return info, nil
}

// GetDocument 获取文档记录
func (s *DocumentService) GetDocument(ctx context.Context, fileID string) (*models.Document, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	return s.statusManager.GetDocument(ctx, fileID)
}

// GetDocumentStatus 获取文档处理状态
func (s *DocumentService) GetDocumentStatus(ctx context.Context, fileID string) (models.DocumentStatus, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	return s.statusManager.GetStatus(ctx, fileID)
}

// ListDocuments 获取文档列表
func (s *DocumentService) ListDocuments(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error) {
	if err := s.Init(); err != nil {
		return nil, 0, err
	}

	return s.statusManager.ListDocuments(ctx, offset, limit, filters)
}

// failDocument 将文档标记为失败状态
func (s *DocumentService) failDocument(ctx context.Context, fileID string, errorMsg string) {
	if s.statusManager == nil {
		s.logger.Error("Cannot mark document as failed: status manager not initialized")
		return
	}

	if err := s.statusManager.MarkAsFailed(ctx, fileID, errorMsg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"file_id": fileID,
			"error":   err,
		}).Error("Failed to mark document as failed")
	}
}

// GetStatusManager 返回文档状态管理器实例
func (s *DocumentService) GetStatusManager() *DocumentStatusManager {
	return s.statusManager
}

// GetTaskQueue 返回任务队列实例
func (s *DocumentService) GetTaskQueue() taskqueue.Queue {
	return s.taskQueue
}
