package repository

import (
	"testing"

	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestChatRepository_SessionLifecycle(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewChatRepository()

	// 创建会话，空ID应自动生成
	session := &models.ChatSession{
		Title:      "New Chat",
		DocumentID: "doc-1",
	}
	err := repo.CreateSession(session)
	assert.NoError(t, err, "Session creation should succeed")
	assert.NotEmpty(t, session.ID, "Session ID should be generated")

	// 获取会话
	saved, err := repo.GetSession(session.ID)
	assert.NoError(t, err)
	assert.Equal(t, "New Chat", saved.Title)
	assert.Equal(t, "doc-1", saved.DocumentID)

	// 更新会话
	saved.Title = "Renamed Chat"
	err = repo.UpdateSession(saved)
	assert.NoError(t, err)

	updated, err := repo.GetSession(session.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Renamed Chat", updated.Title)

	// 获取不存在的会话
	_, err = repo.GetSession("non-existing")
	assert.Error(t, err)
}

func TestChatRepository_ListSessions(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewChatRepository()

	sessions := []*models.ChatSession{
		{ID: "s1", Title: "About the report", DocumentID: "doc-1"},
		{ID: "s2", Title: "Slide planning", DocumentID: "doc-1"},
		{ID: "s3", Title: "Other topic", DocumentID: "doc-2"},
	}
	for _, s := range sessions {
		require.NoError(t, repo.CreateSession(s))
	}

	// 无过滤器
	result, total, err := repo.ListSessions(0, 10, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, result, 3)

	// 按文档过滤
	result, total, err = repo.ListSessions(0, 10, map[string]interface{}{
		"document_id": "doc-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// 标题关键词搜索
	result, total, err = repo.ListSessions(0, 10, map[string]interface{}{
		"title": "Slide",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "s2", result[0].ID)
}

func TestChatRepository_Messages(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewChatRepository()

	session := &models.ChatSession{ID: "msg-session", Title: "Chat"}
	require.NoError(t, repo.CreateSession(session))

	// 创建消息
	messages := []*models.ChatMessage{
		{SessionID: session.ID, Role: models.RoleUser, Content: "make a ppt"},
		{SessionID: session.ID, Role: models.RoleAssistant, Content: "Slide 1: Intro"},
	}
	for _, m := range messages {
		err := repo.CreateMessage(m)
		assert.NoError(t, err)
	}

	// 空会话ID应该失败
	err := repo.CreateMessage(&models.ChatMessage{Content: "orphan"})
	assert.Error(t, err)

	// 获取消息列表
	result, total, err := repo.GetMessages(session.ID, 0, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, result, 2)
	assert.Equal(t, models.RoleUser, result[0].Role, "Messages should be ordered by creation time")

	// 统计消息数量
	count, err := repo.CountMessages(session.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// 不存在的会话
	_, _, err = repo.GetMessages("non-existing", 0, 10)
	assert.Error(t, err)
}

func TestChatRepository_DeleteSession(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewChatRepository()

	session := &models.ChatSession{ID: "del-session", Title: "To delete"}
	require.NoError(t, repo.CreateSession(session))
	require.NoError(t, repo.CreateMessage(&models.ChatMessage{
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   "hello",
	}))

	// 关联一份大纲
	deckRepo := NewDeckRepositoryWithDB(db)
	deck := &models.Deck{
		SessionID: session.ID,
		Title:     "Session Deck",
		Slides:    datatypes.JSON(`[{"title":"Intro","description":"- a point"}]`),
	}
	require.NoError(t, deckRepo.Create(deck))

	err := repo.DeleteSession(session.ID)
	assert.NoError(t, err)

	_, err = repo.GetSession(session.ID)
	assert.Error(t, err, "Session should be deleted")

	count, err := repo.CountMessages(session.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count, "Messages should be deleted with the session")

	_, err = deckRepo.GetByID(deck.ID)
	assert.Error(t, err, "Deck should be deleted with the session")
}

func TestDeckRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewDeckRepositoryWithDB(db)

	// 空会话ID应该失败
	err := repo.Create(&models.Deck{Title: "No session"})
	assert.Error(t, err)

	deck := &models.Deck{
		SessionID: "deck-session",
		Title:     "AI Overview",
		Slides:    datatypes.JSON(`[{"title":"Intro","description":"- point one"}]`),
	}
	err = repo.Create(deck)
	assert.NoError(t, err)
	assert.NotEmpty(t, deck.ID, "Deck ID should be generated")
	assert.Equal(t, 1, deck.Revision, "Initial revision should be 1")

	// 修订版本
	revised := &models.Deck{
		SessionID: "deck-session",
		Title:     "AI Overview",
		Revision:  2,
		Slides:    datatypes.JSON(`[{"title":"Intro","description":"- revised point"}]`),
	}
	require.NoError(t, repo.Create(revised))

	// 最新大纲应为修订版
	latest, err := repo.GetLatestBySession("deck-session")
	assert.NoError(t, err)
	assert.Equal(t, 2, latest.Revision)

	// 记录渲染产物路径
	err = repo.UpdateFilePath(latest.ID, "/data/decks/AI_Overview.pdf")
	assert.NoError(t, err)

	saved, err := repo.GetByID(latest.ID)
	assert.NoError(t, err)
	assert.Equal(t, "/data/decks/AI_Overview.pdf", saved.FilePath)

	// 不存在的会话
	_, err = repo.GetLatestBySession("non-existing")
	assert.ErrorIs(t, err, models.ErrDeckNotFound)
}
