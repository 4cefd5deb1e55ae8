package service

import (
	"context"
	"fmt"
	"log"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/redis/go-redis/v9"

	"github.com/formlead/formlead/internal/config"
	"github.com/formlead/formlead/internal/repository"
	"github.com/formlead/formlead/internal/service/analytics"
	"github.com/formlead/formlead/internal/service/auth"
	"github.com/formlead/formlead/internal/service/chat"
	"github.com/formlead/formlead/internal/service/rag"
	"github.com/formlead/formlead/internal/service/storage"
	"github.com/formlead/formlead/internal/service/submission"
	"github.com/formlead/formlead/internal/service/tasks"
	"github.com/formlead/formlead/internal/service/tenant"
	"github.com/formlead/formlead/internal/service/vertex"
)

// Services 服务集合
type Services struct {
	Auth       *auth.Service
	RAG        *rag.Service
	Submission *submission.Service
	Tenant     *tenant.Service
	Chat       *chat.Service

	Config     *config.Config
	SessionMgr *chat.SessionManager
	Storage    storage.Storage
	Queue      tasks.Queue
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	queue, err := tasks.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}

	// Vertex AI 客户端：未配置项目时流水线以降级模式运行（导入提交会失败并记录）
	var ragData vertex.RagData
	var retrieval vertex.Retrieval
	if cfg.Vertex.ProjectID != "" {
		rd, err := vertex.NewRagDataClient(ctx, cfg.Vertex.Region)
		if err != nil {
			log.Printf("Warning: failed to create Vertex RAG data client: %v", err)
		} else {
			ragData = rd
		}
		rc, err := vertex.NewRetrievalClient(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Region)
		if err != nil {
			log.Printf("Warning: failed to create Vertex retrieval client: %v", err)
		} else {
			retrieval = rc
		}
	}

	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
		chatModel = nil
	}

	sessionMgr := chat.NewSessionManager(redisClient)

	ragSvc := rag.NewService(repo.RagFile, repo.Tenant, store, queue, ragData, cfg)

	// 本地队列与本地/MinIO 存储没有外部事件基础设施，进程内接回流水线
	if lq, ok := queue.(*tasks.LocalQueue); ok {
		lq.SetHandler(ragSvc.Import)
	}
	if storage.StorageType(cfg.Storage.Type) != storage.StorageTypeGCS {
		ragSvc.SetObjectWrittenHook(func(bucket, objectName string) {
			go func() {
				if err := ragSvc.Preprocess(context.Background(), bucket, objectName); err != nil {
					log.Printf("preprocess %s: %v", objectName, err)
				}
			}()
		})
	}

	return &Services{
		Auth:       auth.NewService(repo, cfg),
		RAG:        ragSvc,
		Submission: submission.NewService(repo.Submission, repo.GAConfig, analytics.NewGA4Client()),
		Tenant:     tenant.NewService(repo.Tenant, ragData, cfg),
		Chat:       chat.NewService(repo.Tenant, retrieval, chatModel, sessionMgr, cfg),

		Config:     cfg,
		SessionMgr: sessionMgr,
		Storage:    store,
		Queue:      queue,
	}, nil
}

// newChatModel 创建 ChatModel
func newChatModel(ctx context.Context, cfg *config.Config) (einomodel.ChatModel, error) {
	aiCfg := cfg.AI

	if aiCfg.Provider != "openai" {
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}
	if aiCfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	modelName := aiCfg.OpenAI.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  aiCfg.OpenAI.APIKey,
		BaseURL: aiCfg.OpenAI.BaseURL,
		Model:   modelName,
	})
	if err != nil {
		return nil, err
	}
	return cm, nil
}
