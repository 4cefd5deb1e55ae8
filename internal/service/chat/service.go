package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/formlead/formlead/internal/config"
	appmodel "github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/vertex"
)

const systemPrompt = `你是一家公司官网上的客服助理。基于提供的参考资料回答访客的问题；资料中没有答案时如实说明，不要编造。
始终以 JSON 返回：{"message": "回复内容", "require_form_after_message": true/false}。
当访客表达了购买、咨询报价或预约意向时，把 require_form_after_message 置为 true。`

// fallbackReply 模型不可用时的兜底回复
const fallbackReply = "抱歉，暂时无法回答您的问题，请稍后再试或通过联系表单留言。"

// TenantRepo 租户仓库接口
type TenantRepo interface {
	GetByID(tenantID string) (*appmodel.Tenant, error)
}

// Service 检索增强聊天服务
type Service struct {
	tenants   TenantRepo
	retrieval vertex.Retrieval
	chatModel model.ChatModel
	sessions  *SessionManager
	cfg       *config.Config
}

// NewService 创建聊天服务
func NewService(tenants TenantRepo, retrieval vertex.Retrieval, chatModel model.ChatModel, sessions *SessionManager, cfg *config.Config) *Service {
	return &Service{
		tenants:   tenants,
		retrieval: retrieval,
		chatModel: chatModel,
		sessions:  sessions,
		cfg:       cfg,
	}
}

// ChatRequest 聊天请求
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// ChatResponse 聊天响应
// require_form_after_message 提示前端在本条回复后展示留资表单
type ChatResponse struct {
	SessionID   string   `json:"session_id"`
	Message     string   `json:"message"`
	RequireForm bool     `json:"require_form_after_message"`
	Sources     []string `json:"sources,omitempty"`
}

// structuredReply 模型的结构化输出
type structuredReply struct {
	Message     string `json:"message"`
	RequireForm bool   `json:"require_form_after_message"`
}

// Chat 处理一轮对话
// 从租户语料库检索上下文拼入提示词，模型输出按 JSON 解析，解析失败时
// 先经 jsonrepair 修复，仍失败则把原文当作纯文本回复
func (s *Service) Chat(ctx context.Context, tenantID string, req *ChatRequest) (*ChatResponse, error) {
	if s.chatModel == nil {
		return &ChatResponse{SessionID: req.SessionID, Message: fallbackReply}, nil
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	contexts, sources := s.retrieveContexts(ctx, tenantID, req.Message)

	history, err := s.sessions.History(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, &schema.Message{Role: schema.System, Content: s.buildSystemPrompt(contexts)})
	messages = append(messages, history...)
	userMsg := &schema.Message{Role: schema.User, Content: req.Message}
	messages = append(messages, userMsg)

	resp, err := s.generateWithRetry(ctx, messages)
	if err != nil {
		log.Printf("chat %s: model call failed: %v", sessionID, err)
		return &ChatResponse{SessionID: sessionID, Message: fallbackReply}, nil
	}

	reply := s.parseReply(resp.Content)

	if err := s.sessions.Append(ctx, tenantID, sessionID, userMsg,
		&schema.Message{Role: schema.Assistant, Content: reply.Message}); err != nil {
		log.Printf("chat %s: failed to persist session: %v", sessionID, err)
	}

	return &ChatResponse{
		SessionID:   sessionID,
		Message:     reply.Message,
		RequireForm: reply.RequireForm,
		Sources:     sources,
	}, nil
}

// retrieveContexts 从租户语料库检索参考资料
// 语料库未配置或检索失败时退化为无资料对话
func (s *Service) retrieveContexts(ctx context.Context, tenantID, query string) (contexts, sources []string) {
	if s.retrieval == nil {
		return nil, nil
	}
	tenant, err := s.tenants.GetByID(tenantID)
	if err != nil || tenant.RagCorpusID == "" {
		return nil, nil
	}

	results, err := s.retrieval.RetrieveContexts(ctx, tenant.RagCorpusID, query, 5)
	if err != nil {
		log.Printf("chat: retrieval failed for tenant %s: %v", tenantID, err)
		return nil, nil
	}

	for _, r := range results {
		contexts = append(contexts, r.Text)
		if r.Source != "" {
			sources = append(sources, r.Source)
		}
	}
	return contexts, sources
}

// buildSystemPrompt 拼装带参考资料的系统提示词
func (s *Service) buildSystemPrompt(contexts []string) string {
	if len(contexts) == 0 {
		return systemPrompt
	}
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n参考资料：\n")
	for i, c := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
	}
	return b.String()
}

// generateWithRetry 带指数退避的有界重试
func (s *Service) generateWithRetry(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	retry := s.cfg.AI.Retry
	attempts := retry.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	wait := time.Duration(retry.WaitInitialSeconds) * time.Second
	maxWait := time.Duration(retry.WaitMaxSeconds) * time.Second

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= time.Duration(retry.WaitMultiplier)
			if maxWait > 0 && wait > maxWait {
				wait = maxWait
			}
		}

		resp, err := s.chatModel.Generate(ctx, messages)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Printf("chat: model attempt %d/%d failed: %v", i+1, attempts, err)
	}
	return nil, lastErr
}

// parseReply 解析模型的结构化输出
func (s *Service) parseReply(content string) *structuredReply {
	reply := &structuredReply{}
	if err := json.Unmarshal([]byte(repairReply(content)), reply); err == nil && reply.Message != "" {
		return reply
	}

	// 无法解析时整段当作纯文本回复
	return &structuredReply{Message: strings.TrimSpace(content)}
}

// repairReply 修复模型输出中的 JSON
// 先尝试快速路径，再提取对象区域，最后交给 jsonrepair 强力修复
func repairReply(input string) string {
	s := strings.TrimSpace(input)

	// 快速路径：已经是有效的 JSON 对象
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && json.Valid([]byte(s)) {
		return s
	}

	// 提取 JSON 对象区域，剥掉围栏代码块之类的伪影
	i := strings.IndexByte(s, '{')
	j := strings.LastIndexByte(s, '}')
	if i >= 0 && j >= i {
		sub := s[i : j+1]
		if json.Valid([]byte(sub)) {
			return sub
		}
		s = sub
	}

	out, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return s
	}
	return out
}
