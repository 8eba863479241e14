package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"

	"pdf-chat-be/internal/config"
	"pdf-chat-be/internal/controller"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/pkg/serverutils"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/internal/service"
	"pdf-chat-be/pkg/llm/factory"
	"pdf-chat-be/pkg/lock"
	"pdf-chat-be/pkg/objectstore"
	"pdf-chat-be/pkg/pdf"
	ragcontext "pdf-chat-be/pkg/rag/context"
	"pdf-chat-be/pkg/rag/response"
	"pdf-chat-be/pkg/relevance"

	pktNats "pdf-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	HealthController   controller.IHealthController
	AuthController     controller.IAuthController
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Sweeper         *service.StaleDocumentSweeper

	Logger   logger.ILogger
	closers  []func()
	pubSub   *gochannel.GoChannel
	sweeping bool
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	ctx := context.Background()

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	documentStore := unitofwork.NewDocumentStore(uowFactory)

	c := &Container{Logger: sysLogger}

	// 2. Job queue
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.pubSub = pubSub

	// 3. Infrastructure
	// NATS is optional: without it domain events are dropped.
	var eventPublisher service.IEventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "NATS unavailable, domain events disabled", map[string]interface{}{"error": err.Error()})
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	locker := newLocker(ctx, cfg.App.RedisURL, sysLogger)

	objects, err := NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize storage: %v", err)
	}

	terms, err := relevance.LoadConfig(cfg.Ai.TermsFile)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load relevance terms: %v", err)
	}

	llmProvider, err := factory.NewLLMProvider(ctx, factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 4. Services
	pdfExtractor := pdf.NewExtractor(os.TempDir())
	processingService := service.NewProcessingService(
		documentStore,
		objects,
		pdfExtractor,
		locker,
		cfg.App.StaleProcessingAfter,
		cfg.Upload.ChunkSize,
		eventPublisher,
		sysLogger,
	)
	publisherService := service.NewPublisherService(cfg.App.ProcessDocumentTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.ProcessDocumentTopic, processingService, sysLogger)

	assembler := ragcontext.NewAssembler(documentStore, processingService, relevance.NewScorer(terms), cfg.Upload.ChunkSize, nil)
	generator := response.NewGenerator(llmProvider, assembler, nil,
		response.WithModel(cfg.Ai.LLMModel),
		response.WithTemperature(cfg.Ai.LLMTemperature),
		response.WithTimeout(cfg.Ai.LLMTimeout),
	)

	authService := service.NewAuthService(uowFactory, eventPublisher, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn, sysLogger)
	oauthService := service.NewOAuthService(
		uowFactory,
		authService,
		eventPublisher,
		cfg.Auth.GoogleClientID,
		cfg.Auth.GoogleClientSecret,
		cfg.Auth.GoogleRedirectURL,
		idtoken.Validate,
		sysLogger,
	)
	documentService := service.NewDocumentService(
		uowFactory,
		objects,
		pdfExtractor,
		publisherService,
		processingService,
		eventPublisher,
		cfg.Upload.MaxFileSize,
		sysLogger,
	)
	chatService := service.NewChatService(uowFactory, generator, sysLogger)

	c.Sweeper = service.NewStaleDocumentSweeper(uowFactory, documentStore, cfg.App.StaleProcessingAfter, sysLogger)

	// 5. Controllers
	c.HealthController = controller.NewHealthController(cfg.App.Environment)
	c.AuthController = controller.NewAuthController(authService, oauthService)
	c.DocumentController = controller.NewDocumentController(documentService)
	c.ChatController = controller.NewChatController(chatService, serverutils.NewRateLimiter(cfg.App.ChatRateLimit))

	return c
}

// StartBackground starts the job consumer and the stale document sweeper.
func (c *Container) StartBackground(ctx context.Context, sweepSpec string) error {
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	if err := c.Sweeper.Start(sweepSpec); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	c.sweeping = true
	return nil
}

func (c *Container) Close() {
	if c.sweeping {
		c.Sweeper.Stop()
	}
	if err := c.pubSub.Close(); err != nil {
		c.Logger.Warn("BOOTSTRAP", "Failed to close job queue", map[string]interface{}{"error": err.Error()})
	}
	for _, closer := range c.closers {
		closer()
	}
	_ = c.Logger.Sync()
}

// newLocker prefers Redis so processing locks hold across replicas, and
// falls back to an in-process lock when Redis is not reachable.
func newLocker(ctx context.Context, redisURL string, sysLogger logger.ILogger) lock.Locker {
	if redisURL == "" {
		return lock.NewMemoryLocker()
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: redisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Redis unavailable, using in-memory locks", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return lock.NewMemoryLocker()
	}
	return lock.NewRedisLocker(rdb)
}

// NewObjectStore picks the upload storage backend named by STORAGE_DRIVER.
func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (objectstore.Store, error) {
	switch cfg.Driver {
	case "gcs":
		return objectstore.NewGCSStore(ctx, cfg.GCSBucket)
	case "local", "":
		return objectstore.NewLocalStore(cfg.UploadPath)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
