package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-ppt-system/api/handler"
	"github.com/fyerfyer/doc-ppt-system/internal/document"
	"github.com/fyerfyer/doc-ppt-system/internal/llm"
	"github.com/fyerfyer/doc-ppt-system/internal/models"
	"github.com/fyerfyer/doc-ppt-system/internal/repository"
	"github.com/fyerfyer/doc-ppt-system/internal/services"
	"github.com/fyerfyer/doc-ppt-system/pkg/storage"
)

// apiMockLLM API测试用的大模型客户端
type apiMockLLM struct {
	respond func(prompt string) (string, error)
}

func (m *apiMockLLM) Generate(ctx context.Context, prompt string, options ...llm.GenerateOption) (*llm.Response, error) {
	if m.respond != nil {
		text, err := m.respond(prompt)
		if err != nil {
			return nil, err
		}
		return &llm.Response{Text: text, ModelName: "mock", FinishTime: time.Now()}, nil
	}
	return &llm.Response{Text: "mock response", ModelName: "mock", FinishTime: time.Now()}, nil
}

func (m *apiMockLLM) Chat(ctx context.Context, messages []llm.Message, options ...llm.GenerateOption) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("empty messages")
	}
	return m.Generate(ctx, messages[len(messages)-1].Content, options...)
}

func (m *apiMockLLM) Name() string {
	return "mock"
}

// setupTestRouter 构建带内存数据库和本地存储的完整路由
func setupTestRouter(t *testing.T, respond func(prompt string) (string, error)) *gin.Engine {
	gin.SetMode(gin.TestMode)

	dbName := fmt.Sprintf("file:apidb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Document{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Deck{},
	))

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	client := &apiMockLLM{respond: respond}
	splitter := document.NewTextSplitter(document.SplitterConfig{
		ChunkSize:    8000,
		ChunkOverlap: 400,
	})

	docRepo := repository.NewDocumentRepositoryWithDB(db)
	chatRepo := repository.NewChatRepositoryWithDB(db)
	deckRepo := repository.NewDeckRepositoryWithDB(db)

	summarySvc := services.NewSummaryService(client, splitter)
	outlineSvc := services.NewOutlineService(client)

	docSvc := services.NewDocumentService(store, splitter, summarySvc, outlineSvc,
		services.WithDocumentRepository(docRepo))
	require.NoError(t, docSvc.Init())

	chatSvc := services.NewChatService(client, outlineSvc, chatRepo, docRepo, deckRepo)
	deckSvc := services.NewDeckService(deckRepo, t.TempDir())

	return SetupRouter(
		handler.NewDocumentHandler(docSvc),
		handler.NewChatHandler(chatSvc),
		handler.NewDeckHandler(chatSvc, deckSvc),
	)
}

// doRequest 执行一次HTTP请求并解析响应
func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 && strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}

	return w, resp
}

// uploadFile 构造multipart上传请求
func uploadFile(t *testing.T, router *gin.Engine, filename, content string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return w, resp
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(t, nil)

	w, resp := doRequest(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestDocumentUpload(t *testing.T) {
	router := setupTestRouter(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "presentation-style title") {
			return "Test Document", nil
		}
		return "a summary of the document", nil
	})

	w, resp := uploadFile(t, router, "notes.txt", "Some plain text content for processing.")
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	fileID := data["file_id"].(string)
	require.NotEmpty(t, fileID)
	assert.Equal(t, "notes.txt", data["filename"])

	// 上传后处理在后台进行，轮询状态直到完成
	deadline := time.Now().Add(5 * time.Second)
	var status string
	for time.Now().Before(deadline) {
		w, resp := doRequest(t, router, http.MethodGet, "/api/documents/"+fileID+"/status", nil)
		require.Equal(t, http.StatusOK, w.Code)

		statusData := resp["data"].(map[string]interface{})
		status = statusData["status"].(string)
		if status == "completed" || status == "failed" {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	assert.Equal(t, "completed", status)
}

func TestDocumentUpload_Tags(t *testing.T) {
	router := setupTestRouter(t, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "tagged.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("content with tags"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("tags", "archive,report"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// 标签应落到文档记录上，可用于列表过滤
	lw, resp := doRequest(t, router, http.MethodGet, "/api/documents?tags=archive", nil)
	require.Equal(t, http.StatusOK, lw.Code)

	data := resp["data"].(map[string]interface{})
	require.Equal(t, float64(1), data["total"])

	docs := data["documents"].([]interface{})
	require.Len(t, docs, 1)
	assert.Equal(t, "archive,report", docs[0].(map[string]interface{})["tags"])
}

func TestDocumentUpload_UnsupportedType(t *testing.T) {
	router := setupTestRouter(t, nil)

	w, _ := uploadFile(t, router, "malware.exe", "binary stuff")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatOutlineFlow(t *testing.T) {
	router := setupTestRouter(t, func(prompt string) (string, error) {
		if strings.Contains(prompt, "presentation-style title") {
			return "Space Exploration", nil
		}
		if strings.Contains(prompt, "improving a PowerPoint outline") {
			return "Slide 1: Better Rockets\n- improved point", nil
		}
		return "Slide 1: Rockets\n- fuel types\nSlide 2: Stations\n- orbit basics", nil
	})

	// 创建自由会话
	w, resp := doRequest(t, router, http.MethodPost, "/api/chats", map[string]string{"title": "my chat"})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := resp["data"].(map[string]interface{})["session_id"].(string)
	require.NotEmpty(t, sessionID)

	// 发送带关键词的消息触发大纲生成
	w, resp = doRequest(t, router, http.MethodPost, "/api/chats/"+sessionID+"/messages",
		map[string]string{"content": "make a ppt about space"})
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	require.NotNil(t, data["deck"], "Keyword message should produce a deck")
	deck := data["deck"].(map[string]interface{})
	assert.Equal(t, "Space Exploration", deck["title"])
	assert.Len(t, deck["slides"], 2)

	// 查询当前大纲
	w, resp = doRequest(t, router, http.MethodGet, "/api/chats/"+sessionID+"/deck", nil)
	require.Equal(t, http.StatusOK, w.Code)
	deck = resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), deck["revision"])

	// 提交反馈修订大纲
	w, resp = doRequest(t, router, http.MethodPost, "/api/chats/"+sessionID+"/deck/feedback",
		map[string]string{"feedback": "make it punchier"})
	require.Equal(t, http.StatusOK, w.Code)
	deck = resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), deck["revision"])
	assert.Equal(t, "Space Exploration", deck["title"], "Revision keeps the original title")

	// 渲染大纲，携带字号和字体覆盖
	w, resp = doRequest(t, router, http.MethodPost, "/api/chats/"+sessionID+"/deck/render",
		map[string]interface{}{
			"font_family": "Arial",
			"title_size":  40,
			"text_size":   18,
		})
	require.Equal(t, http.StatusOK, w.Code)
	filePath := resp["data"].(map[string]interface{})["file_path"].(string)
	require.NotEmpty(t, filePath)

	// 下载渲染产物
	req := httptest.NewRequest(http.MethodGet, "/api/chats/"+sessionID+"/deck/download", nil)
	dw := httptest.NewRecorder()
	router.ServeHTTP(dw, req)
	assert.Equal(t, http.StatusOK, dw.Code)
	assert.Contains(t, dw.Header().Get("Content-Disposition"), ".pdf")
}

func TestChatHistory(t *testing.T) {
	router := setupTestRouter(t, func(prompt string) (string, error) {
		return "Hello there!", nil
	})

	w, resp := doRequest(t, router, http.MethodPost, "/api/chats", map[string]string{})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := resp["data"].(map[string]interface{})["session_id"].(string)

	w, _ = doRequest(t, router, http.MethodPost, "/api/chats/"+sessionID+"/messages",
		map[string]string{"content": "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doRequest(t, router, http.MethodGet, "/api/chats/"+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"], "User and assistant messages should both be stored")

	messages := data["messages"].([]interface{})
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "user", first["role"])
}

func TestChatDeck_NotFound(t *testing.T) {
	router := setupTestRouter(t, nil)

	w, resp := doRequest(t, router, http.MethodPost, "/api/chats", map[string]string{})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := resp["data"].(map[string]interface{})["session_id"].(string)

	// 尚未生成大纲时查询应返回404
	w, _ = doRequest(t, router, http.MethodGet, "/api/chats/"+sessionID+"/deck", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteChat(t *testing.T) {
	router := setupTestRouter(t, nil)

	w, resp := doRequest(t, router, http.MethodPost, "/api/chats", map[string]string{})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := resp["data"].(map[string]interface{})["session_id"].(string)

	w, _ = doRequest(t, router, http.MethodDelete, "/api/chats/"+sessionID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, router, http.MethodGet, "/api/chats/"+sessionID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
