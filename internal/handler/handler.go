package handler

import (
	"github.com/formlead/formlead/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	RagFile    *RagFileHandler
	Pipeline   *PipelineHandler
	Submission *SubmissionHandler
	GAConfig   *GAConfigHandler
	Tenant     *TenantHandler
	Chat       *ChatHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		RagFile:    NewRagFileHandler(svc),
		Pipeline:   NewPipelineHandler(svc),
		Submission: NewSubmissionHandler(svc),
		GAConfig:   NewGAConfigHandler(svc),
		Tenant:     NewTenantHandler(svc),
		Chat:       NewChatHandler(svc),
	}
}
