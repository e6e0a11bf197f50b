package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/fyerfyer/doc-ppt-system/internal/repository"
)

type chatTestEnv struct {
	client   *mockLLM
	svc      *ChatService
	docRepo  repository.DocumentRepository
	deckRepo repository.DeckRepository
}

func setupChatTest(t *testing.T, respond func(prompt string) (string, error)) *chatTestEnv {
	dbName := fmt.Sprintf("file:chatdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Document{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Deck{},
	)
	require.NoError(t, err)

	client := &mockLLM{respond: respond}
	docRepo := repository.NewDocumentRepositoryWithDB(db)
	chatRepo := repository.NewChatRepositoryWithDB(db)
	deckRepo := repository.NewDeckRepositoryWithDB(db)

	svc := NewChatService(client, NewOutlineService(client), chatRepo, docRepo, deckRepo)

	return &chatTestEnv{
		client:   client,
		svc:      svc,
		docRepo:  docRepo,
		deckRepo: deckRepo,
	}
}

// createProcessedDocument 造一份带摘要和标题的已处理文档
func createProcessedDocument(t *testing.T, repo repository.DocumentRepository, id string) {
	doc := &models.Document{
		ID:       id,
		FileName: "report.pdf",
		FileType: "pdf",
		FilePath: "/p/report.pdf",
		Status:   models.DocStatusCompleted,
		Summary:  "The report covers quarterly revenue and growth trends.",
		Title:    "Quarterly Report",
	}
	require.NoError(t, repo.Create(doc))
}

func TestChatService_DocumentOutlineGeneration(t *testing.T) {
	env := setupChatTest(t, func(prompt string) (string, error) {
		return "Slide 1: Revenue\n- up 20%\nSlide 2: Outlook\n- positive", nil
	})
	createProcessedDocument(t, env.docRepo, "doc-1")

	session, err := env.svc.CreateSession(context.Background(), "chat", "doc-1")
	require.NoError(t, err)

	reply, err := env.svc.SendMessage(context.Background(), session.ID, "please make a ppt from this")
	require.NoError(t, err)

	// 触发大纲生成，标题沿用文档标题
	require.NotNil(t, reply.Deck)
	assert.Equal(t, "Quarterly Report", reply.Deck.Title)
	assert.Contains(t, reply.Reply, "Generated PPT outline")

	// 生成提示词应包含文档摘要和用户指令
	assert.Contains(t, env.client.prompts[0], "quarterly revenue")
	assert.Contains(t, env.client.prompts[0], "please make a ppt from this")

	// 大纲应已入库
	deck, err := env.deckRepo.GetLatestBySession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, deck.Revision)

	o, err := DeckToOutline(deck)
	require.NoError(t, err)
	require.Len(t, o.Slides, 2)
	assert.Equal(t, "Revenue", o.Slides[0].Title)
}

func TestChatService_DocumentQA(t *testing.T) {
	env := setupChatTest(t, func(prompt string) (string, error) {
		return "Revenue grew by 20%.", nil
	})
	createProcessedDocument(t, env.docRepo, "doc-2")

	session, err := env.svc.CreateSession(context.Background(), "chat", "doc-2")
	require.NoError(t, err)

	reply, err := env.svc.SendMessage(context.Background(), session.ID, "how did revenue change?")
	require.NoError(t, err)

	assert.Nil(t, reply.Deck, "Plain question must not generate a deck")
	assert.Equal(t, "Revenue grew by 20%.", reply.Reply)

	// 问答提示词只基于文档摘要
	assert.Contains(t, env.client.prompts[0], "Answer using only this doc")
	assert.Contains(t, env.client.prompts[0], "quarterly revenue")

	// 用户消息和助手回复都应入库
	messages, total, err := env.svc.GetMessages(session.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
}

func TestChatService_FreeChatOutline(t *testing.T) {
	env := setupChatTest(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "presentation-style title") {
			return "Space Exploration", nil
		}
		return "Slide 1: Rockets\n- fuel types", nil
	})

	session, err := env.svc.CreateSession(context.Background(), "chat", "")
	require.NoError(t, err)

	reply, err := env.svc.SendMessage(context.Background(), session.ID, "make a ppt about space")
	require.NoError(t, err)

	require.NotNil(t, reply.Deck)
	assert.Equal(t, "Space Exploration", reply.Deck.Title)
	assert.Contains(t, reply.Reply, "Space Exploration")
}

func TestChatService_FreeChatPlain(t *testing.T) {
	env := setupChatTest(t, func(prompt string) (string, error) {
		return "Hello there!", nil
	})

	session, err := env.svc.CreateSession(context.Background(), "chat", "")
	require.NoError(t, err)

	reply, err := env.svc.SendMessage(context.Background(), session.ID, "hi")
	require.NoError(t, err)
	assert.Nil(t, reply.Deck)
	assert.Equal(t, "Hello there!", reply.Reply)
}

func TestChatService_QAFailureDegrades(t *testing.T) {
	env := setupChatTest(t, func(prompt string) (string, error) {
		return "", errors.New("upstream timeout")
	})
	createProcessedDocument(t, env.docRepo, "doc-3")

	session, err := env.svc.CreateSession(context.Background(), "chat", "doc-3")
	require.NoError(t, err)

	// 问答失败降级为错误标记回复，会话继续可用
	reply, err := env.svc.SendMessage(context.Background(), session.ID, "what happened?")
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "LLM error")
}

func TestChatService_ApplyFeedback(t *testing.T) {
	env := setupChatTest(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "improving a PowerPoint outline") {
			return "Slide 1: Better Revenue\n- clearer point", nil
		}
		return "Slide 1: Revenue\n- up 20%", nil
	})
	createProcessedDocument(t, env.docRepo, "doc-4")

	session, err := env.svc.CreateSession(context.Background(), "chat", "doc-4")
	require.NoError(t, err)

	_, err = env.svc.SendMessage(context.Background(), session.ID, "make slides please")
	require.NoError(t, err)

	revised, err := env.svc.ApplyFeedback(context.Background(), session.ID, "make slide titles clearer", "")
	require.NoError(t, err)

	assert.Equal(t, 2, revised.Revision, "Revision number should increment")
	assert.Equal(t, "Quarterly Report", revised.Title, "Title preserved without override")

	o, err := DeckToOutline(revised)
	require.NoError(t, err)
	require.Len(t, o.Slides, 1)
	assert.Equal(t, "Better Revenue", o.Slides[0].Title)
}

func TestChatService_FeedbackFailureKeepsDeck(t *testing.T) {
	var failRevision bool
	env := setupChatTest(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "improving a PowerPoint outline") && failRevision {
			return "", errors.New("service unavailable")
		}
		return "Slide 1: Revenue\n- up 20%", nil
	})
	createProcessedDocument(t, env.docRepo, "doc-5")

	session, err := env.svc.CreateSession(context.Background(), "chat", "doc-5")
	require.NoError(t, err)

	_, err = env.svc.SendMessage(context.Background(), session.ID, "make slides please")
	require.NoError(t, err)

	failRevision = true
	_, err = env.svc.ApplyFeedback(context.Background(), session.ID, "feedback", "")
	require.Error(t, err, "Revision failure should surface as error")

	// 原大纲保持不变
	deck, err := env.svc.GetCurrentDeck(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, deck.Revision, "Failed revision must not touch the current deck")
}

func TestChatService_EmptyMessage(t *testing.T) {
	env := setupChatTest(t, nil)

	session, err := env.svc.CreateSession(context.Background(), "chat", "")
	require.NoError(t, err)

	_, err = env.svc.SendMessage(context.Background(), session.ID, "   ")
	assert.Error(t, err)
}

func TestChatService_BindMissingDocument(t *testing.T) {
	env := setupChatTest(t, nil)

	_, err := env.svc.CreateSession(context.Background(), "chat", "no-such-doc")
	assert.Error(t, err)
}
