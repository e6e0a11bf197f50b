package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/fyerfyer/doc-ppt-system/internal/repository"
	"github.com/fyerfyer/doc-ppt-system/pkg/taskqueue"
)

// stubQueue 记录入队调用的任务队列替身
type stubQueue struct {
	enqueuedType taskqueue.TaskType
	enqueuedDoc  string
	payload      interface{}
	err          error
}

func (q *stubQueue) Enqueue(ctx context.Context, taskType taskqueue.TaskType, documentID string, payload interface{}) (string, error) {
	q.enqueuedType = taskType
	q.enqueuedDoc = documentID
	q.payload = payload
	if q.err != nil {
		return "", q.err
	}
	return "task-1", nil
}

func (q *stubQueue) EnqueueAt(ctx context.Context, taskType taskqueue.TaskType, documentID string, payload interface{}, processAt time.Time) (string, error) {
	return "", nil
}

func (q *stubQueue) EnqueueIn(ctx context.Context, taskType taskqueue.TaskType, documentID string, payload interface{}, delay time.Duration) (string, error) {
	return "", nil
}

func (q *stubQueue) GetTask(ctx context.Context, taskID string) (*taskqueue.Task, error) {
	return nil, taskqueue.ErrTaskNotFound
}

func (q *stubQueue) GetTasksByDocument(ctx context.Context, documentID string) ([]*taskqueue.Task, error) {
	return nil, nil
}

func (q *stubQueue) WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*taskqueue.Task, error) {
	return nil, taskqueue.ErrTaskNotFound
}

func (q *stubQueue) DeleteTask(ctx context.Context, taskID string) error { return nil }

func (q *stubQueue) UpdateTaskStatus(ctx context.Context, taskID string, status taskqueue.TaskStatus, result interface{}, errorMsg string) error {
	return nil
}

func (q *stubQueue) NotifyTaskUpdate(ctx context.Context, taskID string) error { return nil }

func (q *stubQueue) Close() error { return nil }

func setupDeckTest(t *testing.T) repository.DeckRepository {
	dbName := fmt.Sprintf("file:deckdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Deck{}))

	return repository.NewDeckRepositoryWithDB(db)
}

func TestDeckService_EnqueueRender(t *testing.T) {
	deckRepo := setupDeckTest(t)

	deck := &models.Deck{
		SessionID: "session-1",
		Title:     "Quarterly Report",
	}
	require.NoError(t, deckRepo.Create(deck))

	queue := &stubQueue{}
	svc := NewDeckService(deckRepo, t.TempDir(), WithDeckQueue(queue))

	taskID, err := svc.EnqueueRender(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", taskID)

	// 入队的应是渲染任务，载荷携带会话和大纲ID
	assert.Equal(t, taskqueue.TaskDeckRender, queue.enqueuedType)
	assert.Equal(t, "session-1", queue.enqueuedDoc)

	payload, ok := queue.payload.(taskqueue.DeckRenderPayload)
	require.True(t, ok)
	assert.Equal(t, "session-1", payload.SessionID)
	assert.Equal(t, deck.ID, payload.DeckID)
}

func TestDeckService_EnqueueRender_NoQueue(t *testing.T) {
	deckRepo := setupDeckTest(t)
	svc := NewDeckService(deckRepo, t.TempDir())

	_, err := svc.EnqueueRender(context.Background(), "session-1")
	assert.Error(t, err, "未配置队列时入队应失败")
}

func TestDeckService_EnqueueRender_NoDeck(t *testing.T) {
	deckRepo := setupDeckTest(t)
	svc := NewDeckService(deckRepo, t.TempDir(), WithDeckQueue(&stubQueue{}))

	_, err := svc.EnqueueRender(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, models.ErrDeckNotFound)
}

func TestDeckService_EnqueueRender_QueueFailure(t *testing.T) {
	deckRepo := setupDeckTest(t)

	require.NoError(t, deckRepo.Create(&models.Deck{
		SessionID: "session-2",
		Title:     "Report",
	}))

	queue := &stubQueue{err: errors.New("redis down")}
	svc := NewDeckService(deckRepo, t.TempDir(), WithDeckQueue(queue))

	_, err := svc.EnqueueRender(context.Background(), "session-2")
	assert.Error(t, err)
}
