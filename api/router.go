package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/doc-ppt-system/api/handler"
	"github.com/fyerfyer/doc-ppt-system/api/middleware"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	docHandler *handler.DocumentHandler,
	chatHandler *handler.ChatHandler,
	deckHandler *handler.DeckHandler,
) *gin.Engine {
	router := gin.New()

	// 应用全局中间件
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	// 在调试模式下记录请求体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	api := router.Group("/api")
	{
		// 文档管理API
		docGroup := api.Group("/documents")
		{
			// 上传文档 - POST /api/documents
			docGroup.POST("", docHandler.UploadDocument)

			// 获取文档状态 - GET /api/documents/:id/status
			docGroup.GET("/:id/status", docHandler.GetDocumentStatus)

			// 获取文档列表 - GET /api/documents
			docGroup.GET("", docHandler.ListDocuments)

			// 删除文档 - DELETE /api/documents/:id
			docGroup.DELETE("/:id", docHandler.DeleteDocument)
		}

		// 聊天会话API
		chatGroup := api.Group("/chats")
		{
			// 创建会话 - POST /api/chats
			chatGroup.POST("", chatHandler.CreateChat)

			// 会话列表 - GET /api/chats
			chatGroup.GET("", chatHandler.ListChats)

			// 聊天历史 - GET /api/chats/:session_id
			chatGroup.GET("/:session_id", chatHandler.GetChatHistory)

			// 发送消息 - POST /api/chats/:session_id/messages
			chatGroup.POST("/:session_id/messages", chatHandler.SendMessage)

			// 重命名会话 - PUT /api/chats/:session_id/title
			chatGroup.PUT("/:session_id/title", chatHandler.RenameChat)

			// 删除会话 - DELETE /api/chats/:session_id
			chatGroup.DELETE("/:session_id", chatHandler.DeleteChat)

			// 当前大纲 - GET /api/chats/:session_id/deck
			chatGroup.GET("/:session_id/deck", deckHandler.GetCurrentDeck)

			// 大纲修订 - POST /api/chats/:session_id/deck/feedback
			chatGroup.POST("/:session_id/deck/feedback", deckHandler.ApplyFeedback)

			// 大纲渲染 - POST /api/chats/:session_id/deck/render
			chatGroup.POST("/:session_id/deck/render", deckHandler.RenderDeck)

			// 下载渲染产物 - GET /api/chats/:session_id/deck/download
			chatGroup.GET("/:session_id/deck/download", deckHandler.DownloadDeck)
		}

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
// 如果需要支持跨域请求，可以启用此中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
