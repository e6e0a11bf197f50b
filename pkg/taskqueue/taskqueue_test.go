package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestQueue 基于miniredis构造队列实例
func newTestQueue(t *testing.T) *RedisQueue {
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.RedisAddr = mr.Addr()

	redisOpt := asynq.RedisClientOpt{Addr: mr.Addr()}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return &RedisQueue{
		client:      asynq.NewClient(redisOpt),
		inspector:   asynq.NewInspector(redisOpt),
		redisClient: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		cfg:         cfg,
		logger:      logger,
	}
}

func TestEnqueueAndGetTask(t *testing.T) {
	q := newTestQueue(t)
	defer q.Close()

	payload := DocumentProcessPayload{
		DocumentID: "doc-1",
		FilePath:   "/data/doc-1.pdf",
		FileName:   "doc-1.pdf",
		FileType:   "pdf",
	}

	taskID, err := q.Enqueue(context.Background(), TaskDocumentProcess, "doc-1", payload)
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	task, err := q.GetTask(context.Background(), taskID)
	require.NoError(t, err)

	assert.Equal(t, TaskDocumentProcess, task.Type)
	assert.Equal(t, "doc-1", task.DocumentID)
	assert.Equal(t, StatusPending, task.Status)

	var decoded DocumentProcessPayload
	require.NoError(t, UnmarshalPayload(task.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestGetTask_NotFound(t *testing.T) {
	q := newTestQueue(t)
	defer q.Close()

	_, err := q.GetTask(context.Background(), "no-such-task")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetTasksByDocument(t *testing.T) {
	q := newTestQueue(t)
	defer q.Close()

	ctx := context.Background()

	_, err := q.Enqueue(ctx, TaskDocumentProcess, "doc-a", DocumentProcessPayload{DocumentID: "doc-a"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, TaskDocumentProcess, "doc-a", DocumentProcessPayload{DocumentID: "doc-a"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, TaskDocumentProcess, "doc-b", DocumentProcessPayload{DocumentID: "doc-b"})
	require.NoError(t, err)

	tasks, err := q.GetTasksByDocument(ctx, "doc-a")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = q.GetTasksByDocument(ctx, "doc-none")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestUpdateTaskStatus(t *testing.T) {
	q := newTestQueue(t)
	defer q.Close()

	ctx := context.Background()
	taskID, err := q.Enqueue(ctx, TaskDocumentProcess, "doc-1", nil)
	require.NoError(t, err)

	// 进入处理中应记录开始时间
	require.NoError(t, q.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, ""))
	task, err := q.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	require.NotNil(t, task.StartedAt)

	// 完成时应记录完成时间和结果
	result := DocumentProcessResult{DocumentID: "doc-1", ChunkCount: 3}
	require.NoError(t, q.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, ""))

	task, err = q.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)

	var decoded DocumentProcessResult
	require.NoError(t, json.Unmarshal(task.Result, &decoded))
	assert.Equal(t, 3, decoded.ChunkCount)
}

func TestUpdateTaskStatus_Failure(t *testing.T) {
	q := newTestQueue(t)
	defer q.Close()

	ctx := context.Background()
	taskID, err := q.Enqueue(ctx, TaskDocumentProcess, "doc-1", nil)
	require.NoError(t, err)

	require.NoError(t, q.UpdateTaskStatus(ctx, taskID, StatusFailed, nil, "parse error"))

	task, err := q.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "parse error", task.Error)
}

func TestDeleteTask(t *testing.T) {
	q := newTestQueue(t)
	defer q.Close()

	ctx := context.Background()
	taskID, err := q.Enqueue(ctx, TaskDocumentProcess, "doc-1", nil)
	require.NoError(t, err)

	require.NoError(t, q.DeleteTask(ctx, taskID))

	_, err = q.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	tasks, err := q.GetTasksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestWaitForTask(t *testing.T) {
	q := newTestQueue(t)
	defer q.Close()

	ctx := context.Background()
	taskID, err := q.Enqueue(ctx, TaskDocumentProcess, "doc-1", nil)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		q.UpdateTaskStatus(context.Background(), taskID, StatusCompleted, nil, "")
		q.NotifyTaskUpdate(context.Background(), taskID)
	}()

	task, err := q.WaitForTask(ctx, taskID, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
}

func TestWaitForTask_Timeout(t *testing.T) {
	q := newTestQueue(t)
	defer q.Close()

	ctx := context.Background()
	taskID, err := q.Enqueue(ctx, TaskDocumentProcess, "doc-1", nil)
	require.NoError(t, err)

	_, err = q.WaitForTask(ctx, taskID, 200*time.Millisecond)
	assert.ErrorIs(t, err, ErrTaskTimeout)
}

func TestDocumentProcessHandler(t *testing.T) {
	var got DocumentProcessPayload
	handler := NewDocumentProcessHandler(func(ctx context.Context, payload DocumentProcessPayload) error {
		got = payload
		return nil
	}, nil)

	payloadBytes, err := MarshalPayload(DocumentProcessPayload{
		DocumentID: "doc-1",
		FilePath:   "/data/doc-1.md",
		FileName:   "doc-1.md",
		FileType:   "md",
	})
	require.NoError(t, err)

	task := &Task{ID: "t-1", Type: TaskDocumentProcess, Payload: payloadBytes}
	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, "md", got.FileType)

	assert.Equal(t, []TaskType{TaskDocumentProcess}, handler.GetTaskTypes())
}

func TestDocumentProcessHandler_InvalidPayload(t *testing.T) {
	handler := NewDocumentProcessHandler(func(ctx context.Context, payload DocumentProcessPayload) error {
		return nil
	}, nil)

	task := &Task{ID: "t-1", Type: TaskDocumentProcess, Payload: json.RawMessage("{}")}
	err := handler.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDocumentProcessHandler_ProcessError(t *testing.T) {
	wantErr := errors.New("pipeline failed")
	handler := NewDocumentProcessHandler(func(ctx context.Context, payload DocumentProcessPayload) error {
		return wantErr
	}, nil)

	payloadBytes, err := MarshalPayload(DocumentProcessPayload{DocumentID: "doc-1"})
	require.NoError(t, err)

	task := &Task{ID: "t-1", Type: TaskDocumentProcess, Payload: payloadBytes}
	assert.ErrorIs(t, handler.ProcessTask(context.Background(), task), wantErr)
}

func TestDeckRenderHandler(t *testing.T) {
	var got DeckRenderPayload
	handler := NewDeckRenderHandler(func(ctx context.Context, payload DeckRenderPayload) (string, error) {
		got = payload
		return "/decks/out.pdf", nil
	}, nil)

	payloadBytes, err := MarshalPayload(DeckRenderPayload{
		SessionID: "session-1",
		DeckID:    "deck-1",
	})
	require.NoError(t, err)

	task := &Task{ID: "t-1", Type: TaskDeckRender, Payload: payloadBytes}
	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Equal(t, "session-1", got.SessionID)
	assert.Equal(t, "deck-1", got.DeckID)

	assert.Equal(t, []TaskType{TaskDeckRender}, handler.GetTaskTypes())
}

func TestDeckRenderHandler_InvalidPayload(t *testing.T) {
	handler := NewDeckRenderHandler(func(ctx context.Context, payload DeckRenderPayload) (string, error) {
		return "", nil
	}, nil)

	task := &Task{ID: "t-1", Type: TaskDeckRender, Payload: json.RawMessage("{}")}
	err := handler.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDeckRenderHandler_RenderError(t *testing.T) {
	wantErr := errors.New("render failed")
	handler := NewDeckRenderHandler(func(ctx context.Context, payload DeckRenderPayload) (string, error) {
		return "", wantErr
	}, nil)

	payloadBytes, err := MarshalPayload(DeckRenderPayload{SessionID: "session-1"})
	require.NoError(t, err)

	task := &Task{ID: "t-1", Type: TaskDeckRender, Payload: payloadBytes}
	assert.ErrorIs(t, handler.ProcessTask(context.Background(), task), wantErr)
}
