package repository

import (
	"github.com/formlead/formlead/internal/model"
	"gorm.io/gorm"
)

// SubmissionRepository 联系表单提交仓库
type SubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建提交仓库
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create 创建提交记录
func (r *SubmissionRepository) Create(sub *model.ContactSubmission) error {
	return r.db.Create(sub).Error
}

// GetByID 按租户获取提交记录
func (r *SubmissionRepository) GetByID(tenantID string, id int64) (*model.ContactSubmission, error) {
	var sub model.ContactSubmission
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByTenant 分页列出租户的提交记录
func (r *SubmissionRepository) ListByTenant(tenantID string, offset, limit int) ([]*model.ContactSubmission, int64, error) {
	q := r.db.Model(&model.ContactSubmission{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []*model.ContactSubmission
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, total, err
}

// UpdateStatus 更新线索状态与原因，返回更新后的记录
func (r *SubmissionRepository) UpdateStatus(tenantID string, id int64, newStatus, reason string) (*model.ContactSubmission, error) {
	res := r.db.Model(&model.ContactSubmission{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"submission_status":    newStatus,
			"status_change_reason": reason,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(tenantID, id)
}
