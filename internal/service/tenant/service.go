package tenant

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/formlead/formlead/internal/config"
	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/vertex"
)

// ErrNotFound 租户不存在
var ErrNotFound = errors.New("tenant not found")

// TenantRepo 租户仓库接口
type TenantRepo interface {
	Create(tenant *model.Tenant) error
	GetByID(tenantID string) (*model.Tenant, error)
	GetByAPIKey(apiKey string) (*model.Tenant, error)
	List(offset, limit int, showDeleted bool) ([]*model.Tenant, int64, error)
	Update(tenant *model.Tenant) error
	SetRagCorpus(tenantID, corpusName, displayName string) error
	SoftDelete(tenantID string) (bool, error)
}

// Service 租户管理服务
type Service struct {
	tenants TenantRepo
	ragData vertex.RagData
	cfg     *config.Config
}

// NewService 创建租户服务
func NewService(tenants TenantRepo, ragData vertex.RagData, cfg *config.Config) *Service {
	return &Service{tenants: tenants, ragData: ragData, cfg: cfg}
}

// CreateRequest 创建租户请求
type CreateRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Domain      string `json:"domain"`
}

// Create 创建租户并尝试配备检索语料库
// 语料库创建失败不阻断租户创建，可此后通过 ProvisionCorpus 补建
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*model.Tenant, error) {
	tenant := &model.Tenant{
		CompanyName: req.CompanyName,
		Domain:      req.Domain,
	}
	if err := s.tenants.Create(tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	if err := s.ProvisionCorpus(ctx, tenant.TenantID); err != nil {
		log.Printf("tenant %s: corpus provisioning deferred: %v", tenant.TenantID, err)
	}
	return s.Get(ctx, tenant.TenantID)
}

// ProvisionCorpus 为租户创建检索语料库，幂等
func (s *Service) ProvisionCorpus(ctx context.Context, tenantID string) error {
	tenant, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return ErrNotFound
	}
	if tenant.RagCorpusID != "" {
		return nil
	}
	if s.ragData == nil {
		return errors.New("rag data client not configured")
	}

	displayName := fmt.Sprintf("tenant-%s-corpus", tenantID)
	parent := vertex.LocationParent(s.cfg.Vertex.ProjectID, s.cfg.Vertex.Region)

	corpusName, err := s.ragData.CreateCorpus(ctx, parent, displayName)
	if err != nil {
		return fmt.Errorf("failed to create rag corpus: %w", err)
	}

	if err := s.tenants.SetRagCorpus(tenantID, corpusName, displayName); err != nil {
		return fmt.Errorf("failed to record rag corpus: %w", err)
	}
	return nil
}

// Get 获取租户
func (s *Service) Get(ctx context.Context, tenantID string) (*model.Tenant, error) {
	tenant, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return nil, ErrNotFound
	}
	return tenant, nil
}

// GetByAPIKey 按 API Key 解析租户
func (s *Service) GetByAPIKey(apiKey string) (*model.Tenant, error) {
	tenant, err := s.tenants.GetByAPIKey(apiKey)
	if err != nil {
		return nil, ErrNotFound
	}
	return tenant, nil
}

// List 分页列出租户
func (s *Service) List(ctx context.Context, offset, limit int, showDeleted bool) ([]*model.Tenant, int64, error) {
	return s.tenants.List(offset, limit, showDeleted)
}

// UpdateRequest 更新租户请求
type UpdateRequest struct {
	CompanyName string `json:"company_name"`
	Domain      string `json:"domain"`
}

// Update 更新租户
func (s *Service) Update(ctx context.Context, tenantID string, req *UpdateRequest) (*model.Tenant, error) {
	tenant, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return nil, ErrNotFound
	}

	if req.CompanyName != "" {
		tenant.CompanyName = req.CompanyName
	}
	if req.Domain != "" {
		tenant.Domain = req.Domain
	}
	if err := s.tenants.Update(tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Delete 逻辑删除租户，语料库清理尽力而为
func (s *Service) Delete(ctx context.Context, tenantID string) error {
	tenant, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return ErrNotFound
	}

	found, err := s.tenants.SoftDelete(tenantID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	if tenant.RagCorpusID != "" && s.ragData != nil {
		if err := s.ragData.DeleteCorpus(ctx, tenant.RagCorpusID); err != nil {
			log.Printf("tenant %s: failed to delete rag corpus %s: %v", tenantID, tenant.RagCorpusID, err)
		}
	}
	return nil
}
