package repository

import (
	"github.com/formlead/formlead/internal/model"
	"gorm.io/gorm"
)

// TenantRepository 租户仓库
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository 创建租户仓库
func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create 创建租户
func (r *TenantRepository) Create(tenant *model.Tenant) error {
	return r.db.Create(tenant).Error
}

// GetByID 根据ID获取租户
func (r *TenantRepository) GetByID(tenantID string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.Where("tenant_id = ?", tenantID).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByAPIKey 根据 API Key 获取租户（小组件端点使用）
func (r *TenantRepository) GetByAPIKey(apiKey string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.Where("api_key = ? AND is_deleted = false", apiKey).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// List 分页列出租户
func (r *TenantRepository) List(offset, limit int, showDeleted bool) ([]*model.Tenant, int64, error) {
	q := r.db.Model(&model.Tenant{})
	if !showDeleted {
		q = q.Where("is_deleted = false")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tenants []*model.Tenant
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&tenants).Error
	return tenants, total, err
}

// Update 更新租户
func (r *TenantRepository) Update(tenant *model.Tenant) error {
	return r.db.Save(tenant).Error
}

// SetRagCorpus 记录已创建的检索语料库资源名
func (r *TenantRepository) SetRagCorpus(tenantID, corpusName, displayName string) error {
	return r.db.Model(&model.Tenant{}).
		Where("tenant_id = ?", tenantID).
		Updates(map[string]interface{}{
			"rag_corpus_id":           corpusName,
			"rag_corpus_display_name": displayName,
		}).Error
}

// SoftDelete 逻辑删除
func (r *TenantRepository) SoftDelete(tenantID string) (bool, error) {
	res := r.db.Model(&model.Tenant{}).
		Where("tenant_id = ? AND is_deleted = false", tenantID).
		Update("is_deleted", true)
	return res.RowsAffected > 0, res.Error
}

// HardDelete 物理删除
func (r *TenantRepository) HardDelete(tenantID string) (bool, error) {
	res := r.db.Where("tenant_id = ?", tenantID).Delete(&model.Tenant{})
	return res.RowsAffected > 0, res.Error
}
