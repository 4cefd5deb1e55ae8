package tenant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/formlead/formlead/internal/config"
	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/vertex"
)

// ========== 测试替身 ==========

// memTenantRepo 内存租户仓库
type memTenantRepo struct {
	tenants map[string]*model.Tenant
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{tenants: make(map[string]*model.Tenant)}
}

func (r *memTenantRepo) Create(tenant *model.Tenant) error {
	if tenant.TenantID == "" {
		tenant.TenantID = uuid.New().String()
	}
	if tenant.APIKey == "" {
		tenant.APIKey = "flk_" + uuid.New().String()
	}
	cp := *tenant
	r.tenants[tenant.TenantID] = &cp
	return nil
}

func (r *memTenantRepo) GetByID(tenantID string) (*model.Tenant, error) {
	t, ok := r.tenants[tenantID]
	if !ok || t.IsDeleted {
		return nil, errors.New("tenant not found")
	}
	cp := *t
	return &cp, nil
}

func (r *memTenantRepo) GetByAPIKey(apiKey string) (*model.Tenant, error) {
	for _, t := range r.tenants {
		if t.APIKey == apiKey && !t.IsDeleted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, errors.New("tenant not found")
}

func (r *memTenantRepo) List(offset, limit int, showDeleted bool) ([]*model.Tenant, int64, error) {
	var out []*model.Tenant
	for _, t := range r.tenants {
		if t.IsDeleted && !showDeleted {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *memTenantRepo) Update(tenant *model.Tenant) error {
	cp := *tenant
	r.tenants[tenant.TenantID] = &cp
	return nil
}

func (r *memTenantRepo) SetRagCorpus(tenantID, corpusName, displayName string) error {
	t, ok := r.tenants[tenantID]
	if !ok {
		return errors.New("tenant not found")
	}
	t.RagCorpusID = corpusName
	t.RagCorpusDisplayName = displayName
	return nil
}

func (r *memTenantRepo) SoftDelete(tenantID string) (bool, error) {
	t, ok := r.tenants[tenantID]
	if !ok || t.IsDeleted {
		return false, nil
	}
	t.IsDeleted = true
	return true, nil
}

// mockRagData 记录语料库操作的 RAG 数据面
type mockRagData struct {
	createCalls    int
	createErr      error
	deletedCorpora []string
}

func (m *mockRagData) ImportFiles(ctx context.Context, req *vertex.ImportRequest) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockRagData) GetOperation(ctx context.Context, operationName string) (*vertex.OperationStatus, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRagData) CreateCorpus(ctx context.Context, parent, displayName string) (string, error) {
	m.createCalls++
	if m.createErr != nil {
		return "", m.createErr
	}
	return fmt.Sprintf("%s/ragCorpora/%d", parent, m.createCalls), nil
}

func (m *mockRagData) ListFiles(ctx context.Context, corpusName string) ([]*vertex.RagFileInfo, error) {
	return nil, nil
}

func (m *mockRagData) DeleteFile(ctx context.Context, ragFileName string) error {
	return nil
}

func (m *mockRagData) DeleteCorpus(ctx context.Context, corpusName string) error {
	m.deletedCorpora = append(m.deletedCorpora, corpusName)
	return nil
}

func tenantTestConfig() *config.Config {
	return &config.Config{
		Vertex: config.VertexConfig{ProjectID: "proj", Region: "us-central1"},
	}
}

// ========== 租户管理测试 ==========

func TestCreateProvisionsCorpus(t *testing.T) {
	repo := newMemTenantRepo()
	ragData := &mockRagData{}
	svc := NewService(repo, ragData, tenantTestConfig())

	tenant, err := svc.Create(context.Background(), &CreateRequest{CompanyName: "Acme", Domain: "acme.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tenant.TenantID == "" || tenant.APIKey == "" {
		t.Errorf("tenant = %+v, want generated id and api key", tenant)
	}
	if tenant.RagCorpusID != "projects/proj/locations/us-central1/ragCorpora/1" {
		t.Errorf("corpus = %v", tenant.RagCorpusID)
	}
	if tenant.RagCorpusDisplayName != "tenant-"+tenant.TenantID+"-corpus" {
		t.Errorf("corpus display name = %v", tenant.RagCorpusDisplayName)
	}
}

func TestCreateSurvivesCorpusFailure(t *testing.T) {
	repo := newMemTenantRepo()
	ragData := &mockRagData{createErr: errors.New("quota exceeded")}
	svc := NewService(repo, ragData, tenantTestConfig())

	tenant, err := svc.Create(context.Background(), &CreateRequest{CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("Create() error = %v, corpus failure must not block tenant creation", err)
	}
	if tenant.RagCorpusID != "" {
		t.Errorf("corpus = %v, want empty after failed provisioning", tenant.RagCorpusID)
	}

	// 补建成功
	ragData.createErr = nil
	if err := svc.ProvisionCorpus(context.Background(), tenant.TenantID); err != nil {
		t.Fatalf("ProvisionCorpus() error = %v", err)
	}
	got, _ := svc.Get(context.Background(), tenant.TenantID)
	if got.RagCorpusID == "" {
		t.Error("corpus still empty after re-provisioning")
	}
}

func TestProvisionCorpusIdempotent(t *testing.T) {
	repo := newMemTenantRepo()
	ragData := &mockRagData{}
	svc := NewService(repo, ragData, tenantTestConfig())

	tenant, err := svc.Create(context.Background(), &CreateRequest{CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// 已有语料库的租户再次配备不产生新语料库
	if err := svc.ProvisionCorpus(context.Background(), tenant.TenantID); err != nil {
		t.Fatalf("ProvisionCorpus() error = %v", err)
	}
	if ragData.createCalls != 1 {
		t.Errorf("corpus creations = %d, want 1", ragData.createCalls)
	}
}

func TestGetByAPIKey(t *testing.T) {
	repo := newMemTenantRepo()
	svc := NewService(repo, &mockRagData{}, tenantTestConfig())

	tenant, _ := svc.Create(context.Background(), &CreateRequest{CompanyName: "Acme"})

	got, err := svc.GetByAPIKey(tenant.APIKey)
	if err != nil {
		t.Fatalf("GetByAPIKey() error = %v", err)
	}
	if got.TenantID != tenant.TenantID {
		t.Errorf("tenant = %v, want %v", got.TenantID, tenant.TenantID)
	}

	if _, err := svc.GetByAPIKey("flk_bogus"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByAPIKey() bogus key error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSoftDeletesAndRemovesCorpus(t *testing.T) {
	repo := newMemTenantRepo()
	ragData := &mockRagData{}
	svc := NewService(repo, ragData, tenantTestConfig())

	tenant, _ := svc.Create(context.Background(), &CreateRequest{CompanyName: "Acme"})

	if err := svc.Delete(context.Background(), tenant.TenantID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := svc.Get(context.Background(), tenant.TenantID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByAPIKey(tenant.APIKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted tenant api key still resolves")
	}
	if len(ragData.deletedCorpora) != 1 || ragData.deletedCorpora[0] != tenant.RagCorpusID {
		t.Errorf("deleted corpora = %v, want [%v]", ragData.deletedCorpora, tenant.RagCorpusID)
	}
}

func TestUpdate(t *testing.T) {
	repo := newMemTenantRepo()
	svc := NewService(repo, &mockRagData{}, tenantTestConfig())

	tenant, _ := svc.Create(context.Background(), &CreateRequest{CompanyName: "Acme"})

	updated, err := svc.Update(context.Background(), tenant.TenantID, &UpdateRequest{CompanyName: "Acme Inc"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.CompanyName != "Acme Inc" {
		t.Errorf("company name = %v", updated.CompanyName)
	}
	// 未提供的字段保持原值
	if updated.Domain != tenant.Domain {
		t.Errorf("domain = %v, want unchanged", updated.Domain)
	}
}
