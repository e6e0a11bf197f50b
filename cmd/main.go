package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/doc-ppt-system/api"
	"github.com/fyerfyer/doc-ppt-system/api/handler"
	"github.com/fyerfyer/doc-ppt-system/api/middleware"
	"github.com/fyerfyer/doc-ppt-system/config"
	"github.com/fyerfyer/doc-ppt-system/internal/cache"
	"github.com/fyerfyer/doc-ppt-system/internal/database"
	"github.com/fyerfyer/doc-ppt-system/internal/document"
	"github.com/fyerfyer/doc-ppt-system/internal/llm"
	"github.com/fyerfyer/doc-ppt-system/internal/renderer"
	"github.com/fyerfyer/doc-ppt-system/internal/repository"
	"github.com/fyerfyer/doc-ppt-system/internal/services"
	"github.com/fyerfyer/doc-ppt-system/pkg/storage"
	"github.com/fyerfyer/doc-ppt-system/pkg/taskqueue"
)

// flags 命令行参数
var flags struct {
	configPath   string
	host         string
	port         int
	storageType  string
	llmProvider  string
	llmAPIKey    string
	queueEnabled bool
	logLevel     string
}

// parseFlags 解析命令行参数
func parseFlags() {
	flag.StringVar(&flags.configPath, "config", "config/config.yaml", "配置文件路径")
	flag.StringVar(&flags.host, "host", "0.0.0.0", "服务器监听地址")
	flag.IntVar(&flags.port, "port", 8080, "服务器监听端口")
	flag.StringVar(&flags.storageType, "storage", "local", "存储类型 (local, minio)")
	flag.StringVar(&flags.llmProvider, "llm", "gemini", "大模型提供商 (gemini, openai)")
	flag.StringVar(&flags.llmAPIKey, "api-key", "", "大模型API密钥")
	flag.BoolVar(&flags.queueEnabled, "queue", false, "是否启用异步任务队列")
	flag.StringVar(&flags.logLevel, "log-level", "info", "日志级别 (debug, info, warn, error)")
	flag.Parse()

	// 未通过参数指定时从环境变量读取API密钥
	if flags.llmAPIKey == "" {
		switch flags.llmProvider {
		case "openai":
			flags.llmAPIKey = os.Getenv("OPENAI_API_KEY")
		default:
			flags.llmAPIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// applyFlagOverrides 让显式指定的命令行参数覆盖配置文件
// 参数值等于默认值时视为未指定，保留配置文件中的设置
func applyFlagOverrides(cfg *config.Config) {
	if f := flag.Lookup("host"); f != nil && f.Value.String() != f.DefValue {
		cfg.Server.Host = flags.host
	}
	if f := flag.Lookup("port"); f != nil && f.Value.String() != f.DefValue {
		cfg.Server.Port = flags.port
	}
	if f := flag.Lookup("storage"); f != nil && f.Value.String() != f.DefValue {
		cfg.Storage.Type = flags.storageType
	}
	if f := flag.Lookup("llm"); f != nil && f.Value.String() != f.DefValue {
		cfg.LLM.Provider = flags.llmProvider
	}
	if flags.llmAPIKey != "" {
		cfg.LLM.APIKey = flags.llmAPIKey
	}
	if f := flag.Lookup("queue"); f != nil && f.Value.String() != f.DefValue {
		cfg.Queue.Enable = flags.queueEnabled
	}
	if f := flag.Lookup("log-level"); f != nil && f.Value.String() != f.DefValue {
		cfg.Log.Level = flags.logLevel
	}
}

// setupLogger 初始化日志记录器
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// 配置了日志文件时启用滚动输出
	if cfg.Log.File != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		})
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}

// setupDatabase 初始化数据库连接
func setupDatabase(cfg *config.Config, logger *logrus.Logger) error {
	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Database.Type
	dbConfig.DSN = cfg.Database.DSN
	return database.Setup(dbConfig, logger)
}

// setupStorage 根据配置创建存储实例
func setupStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
	case "local", "":
		return storage.NewLocalStorage(storage.LocalConfig{
			Path: cfg.Storage.Path,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// setupLLM 根据配置创建大模型客户端
func setupLLM(cfg *config.Config) (llm.Client, error) {
	opts := []llm.Option{
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithModel(cfg.LLM.Model),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
	}
	if cfg.LLM.Endpoint != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.Endpoint))
	}

	return llm.NewClient(cfg.LLM.Provider, opts...)
}

// setupCache 初始化摘要缓存，未启用时返回nil
func setupCache(cfg *config.Config, logger *logrus.Logger) cache.Cache {
	if !cfg.Cache.Enable {
		return nil
	}

	c, err := cache.NewCache(cache.Config{
		Type:            cfg.Cache.Type,
		RedisAddr:       cfg.Cache.Address,
		RedisPassword:   cfg.Cache.Password,
		RedisDB:         cfg.Cache.DB,
		DefaultTTL:      time.Duration(cfg.Cache.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to create cache, summaries will not be cached")
		return nil
	}

	return c
}

// setupTaskQueue 初始化任务队列，未启用时返回nil
func setupTaskQueue(cfg *config.Config, logger *logrus.Logger) (taskqueue.Queue, *taskqueue.Config) {
	if !cfg.Queue.Enable {
		return nil, nil
	}

	queueCfg := taskqueue.DefaultConfig()
	queueCfg.RedisAddr = cfg.Queue.RedisAddr
	queueCfg.RedisPassword = cfg.Queue.RedisPassword
	queueCfg.RedisDB = cfg.Queue.RedisDB
	queueCfg.Concurrency = cfg.Queue.Concurrency
	queueCfg.RetryLimit = cfg.Queue.RetryLimit
	queueCfg.RetryDelay = time.Duration(cfg.Queue.RetryDelay) * time.Second

	queue, err := taskqueue.NewQueue(cfg.Queue.Type, queueCfg)
	if err != nil {
		logger.WithError(err).Warn("Failed to create task queue, falling back to synchronous processing")
		return nil, nil
	}

	return queue, queueCfg
}

// deckStyleFromConfig 从配置构建渲染样式
func deckStyleFromConfig(cfg *config.Config) renderer.StyleConfig {
	style := renderer.DefaultStyle()
	if cfg.Deck.FontFamily != "" {
		style.FontFamily = cfg.Deck.FontFamily
	}
	if cfg.Deck.TitleSize > 0 {
		style.TitleSize = cfg.Deck.TitleSize
	}
	if cfg.Deck.TextSize > 0 {
		style.TextSize = cfg.Deck.TextSize
	}
	if cfg.Deck.TitleColor != "" {
		style.TitleColor = cfg.Deck.TitleColor
	}
	if cfg.Deck.TextColor != "" {
		style.TextColor = cfg.Deck.TextColor
	}
	if cfg.Deck.BackgroundColor != "" {
		style.BackgroundColor = cfg.Deck.BackgroundColor
	}
	return style
}

func main() {
	// 加载.env文件中的环境变量（存在时）
	_ = godotenv.Load()

	parseFlags()

	// 1. 加载配置
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)

	// 2. 初始化日志
	logger := setupLogger(cfg)
	middleware.SetLogger(logger)

	if strings.ToLower(cfg.Log.Level) == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. 初始化数据库
	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to setup database: %v", err)
	}
	defer database.Close()

	// 4. 初始化存储
	store, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to setup storage: %v", err)
	}
	logger.WithField("type", cfg.Storage.Type).Info("Storage initialized")

	// 5. 初始化大模型客户端
	llmClient, err := setupLLM(cfg)
	if err != nil {
		logger.Fatalf("Failed to setup LLM client: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
	}).Info("LLM client initialized")

	// 6. 初始化缓存和任务队列
	summaryCache := setupCache(cfg, logger)
	queue, queueCfg := setupTaskQueue(cfg, logger)
	if queue != nil {
		defer queue.Close()
	}

	// 7. 组装仓储层
	db := database.MustDB()
	var docRepo repository.DocumentRepository
	if queue != nil {
		docRepo = repository.NewDocumentRepositoryWithQueue(db, queue)
	} else {
		docRepo = repository.NewDocumentRepositoryWithDB(db)
	}
	chatRepo := repository.NewChatRepositoryWithDB(db)
	deckRepo := repository.NewDeckRepositoryWithDB(db)

	// 8. 组装服务层
	splitter := document.NewTextSplitter(document.SplitterConfig{
		ChunkSize:    cfg.Document.ChunkSize,
		ChunkOverlap: cfg.Document.ChunkOverlap,
	})

	summaryOpts := []services.SummaryOption{
		services.WithSummaryWorkers(cfg.Document.MaxWorkers),
		services.WithSummaryLogger(logger),
	}
	if summaryCache != nil {
		summaryOpts = append(summaryOpts,
			services.WithSummaryCache(summaryCache, time.Duration(cfg.Cache.TTL)*time.Second))
	}
	summarySvc := services.NewSummaryService(llmClient, splitter, summaryOpts...)

	outlineSvc := services.NewOutlineService(llmClient, services.WithOutlineLogger(logger))

	docOpts := []services.DocumentOption{
		services.WithDocumentRepository(docRepo),
		services.WithLogger(logger),
		services.WithTimeout(time.Duration(cfg.Document.TimeoutSec) * time.Second),
	}
	if queue != nil {
		docOpts = append(docOpts, services.WithTaskQueue(queue), services.WithAsyncProcessing(true))
	}
	docSvc := services.NewDocumentService(store, splitter, summarySvc, outlineSvc, docOpts...)
	if err := docSvc.Init(); err != nil {
		logger.Fatalf("Failed to initialize document service: %v", err)
	}

	chatSvc := services.NewChatService(llmClient, outlineSvc, chatRepo, docRepo, deckRepo,
		services.WithChatLogger(logger))

	deckOpts := []services.DeckOption{
		services.WithDeckStyle(deckStyleFromConfig(cfg)),
		services.WithDeckLogger(logger),
	}
	if queue != nil {
		deckOpts = append(deckOpts, services.WithDeckQueue(queue))
	}
	deckSvc := services.NewDeckService(deckRepo, cfg.Deck.OutputDir, deckOpts...)

	// 9. 启用队列时启动后台工作者
	if queue != nil {
		redisQueue, ok := queue.(*taskqueue.RedisQueue)
		if !ok {
			logger.Fatalf("Task queue type %s does not support workers", cfg.Queue.Type)
		}

		worker := taskqueue.NewRedisWorker(redisQueue, queueCfg)
		worker.RegisterHandler(taskqueue.TaskDocumentProcess,
			taskqueue.NewDocumentProcessHandler(docSvc.ProcessQueuedDocument, logger))
		worker.RegisterHandler(taskqueue.TaskDeckRender,
			taskqueue.NewDeckRenderHandler(func(ctx context.Context, payload taskqueue.DeckRenderPayload) (string, error) {
				return deckSvc.RenderSession(ctx, payload.SessionID, nil)
			}, logger))

		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
		logger.Info("Task queue worker started")
	}

	// 10. 设置路由并启动HTTP服务器
	router := api.SetupRouter(
		handler.NewDocumentHandler(docSvc),
		handler.NewChatHandler(chatSvc),
		handler.NewDeckHandler(chatSvc, deckSvc),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.WithField("addr", addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 11. 等待退出信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
