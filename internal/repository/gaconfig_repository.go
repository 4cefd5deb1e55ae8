package repository

import (
	"github.com/formlead/formlead/internal/model"
	"gorm.io/gorm"
)

// GAConfigRepository 表单 GA4 配置仓库
type GAConfigRepository struct {
	db *gorm.DB
}

// NewGAConfigRepository 创建 GA4 配置仓库
func NewGAConfigRepository(db *gorm.DB) *GAConfigRepository {
	return &GAConfigRepository{db: db}
}

// Create 创建配置
func (r *GAConfigRepository) Create(cfg *model.FormGAConfiguration) error {
	return r.db.Create(cfg).Error
}

// GetByForm 按租户与表单ID获取配置
func (r *GAConfigRepository) GetByForm(tenantID, formID string) (*model.FormGAConfiguration, error) {
	var cfg model.FormGAConfiguration
	err := r.db.Where("tenant_id = ? AND form_id = ?", tenantID, formID).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListByTenant 分页列出租户的配置
func (r *GAConfigRepository) ListByTenant(tenantID string, offset, limit int) ([]*model.FormGAConfiguration, error) {
	var cfgs []*model.FormGAConfiguration
	err := r.db.Where("tenant_id = ?", tenantID).
		Offset(offset).Limit(limit).
		Find(&cfgs).Error
	return cfgs, err
}

// Update 更新配置
func (r *GAConfigRepository) Update(cfg *model.FormGAConfiguration) error {
	return r.db.Save(cfg).Error
}

// Delete 删除配置
func (r *GAConfigRepository) Delete(tenantID, formID string) (bool, error) {
	res := r.db.Where("tenant_id = ? AND form_id = ?", tenantID, formID).
		Delete(&model.FormGAConfiguration{})
	return res.RowsAffected > 0, res.Error
}
