package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/formlead/formlead/internal/model"
)

var (
	// ErrIllegalTransition 非法状态转移
	ErrIllegalTransition = errors.New("illegal processing status transition")
	// ErrStatusConflict 状态在读取与更新之间被并发修改
	ErrStatusConflict = errors.New("processing status changed concurrently")
)

// RagFileRepository RAG 文件元数据仓库
// 所有查询都以 tenant_id 等值过滤，跨租户访问在结构上不可能
type RagFileRepository struct {
	db *gorm.DB
}

// NewRagFileRepository 创建 RAG 文件仓库
func NewRagFileRepository(db *gorm.DB) *RagFileRepository {
	return &RagFileRepository{db: db}
}

// Create 创建文件记录
func (r *RagFileRepository) Create(file *model.RagUploadedFile) error {
	return r.db.Create(file).Error
}

// GetByID 按租户与 processing_id 获取记录
func (r *RagFileRepository) GetByID(tenantID, processingID string) (*model.RagUploadedFile, error) {
	var file model.RagUploadedFile
	err := r.db.Where("tenant_id = ? AND processing_id = ?", tenantID, processingID).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByTenant 列出租户的全部文件记录
func (r *RagFileRepository) ListByTenant(tenantID string) ([]*model.RagUploadedFile, error) {
	var files []*model.RagUploadedFile
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("upload_timestamp DESC").
		Find(&files).Error
	return files, err
}

// ListByStatus 列出指定状态的全部记录（监控扫描使用）
func (r *RagFileRepository) ListByStatus(status model.ProcessingStatus) ([]*model.RagUploadedFile, error) {
	var files []*model.RagUploadedFile
	err := r.db.Where("processing_status = ?", status).Find(&files).Error
	return files, err
}

// Delete 删除记录，返回是否存在
func (r *RagFileRepository) Delete(tenantID, processingID string) (bool, error) {
	res := r.db.Where("tenant_id = ? AND processing_id = ?", tenantID, processingID).
		Delete(&model.RagUploadedFile{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateStatus 状态转移，携带可选的附加字段更新
// 按转移表校验，并用当前状态作为写入条件，保证单行读改写的原子性
func (r *RagFileRepository) UpdateStatus(tenantID, processingID string, to model.ProcessingStatus, message string, extra map[string]interface{}) error {
	file, err := r.GetByID(tenantID, processingID)
	if err != nil {
		return err
	}

	from := file.ProcessingStatus
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s (processing_id=%s)", ErrIllegalTransition, from, to, processingID)
	}

	updates := map[string]interface{}{
		"processing_status": to,
		"status_message":    message,
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.Model(&model.RagUploadedFile{}).
		Where("tenant_id = ? AND processing_id = ? AND processing_status = ?", tenantID, processingID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: processing_id=%s", ErrStatusConflict, processingID)
	}
	return nil
}

// SetUploadPath 记录上传对象路径（阶段2回填，写一次）
func (r *RagFileRepository) SetUploadPath(tenantID, processingID, path string) error {
	return r.db.Model(&model.RagUploadedFile{}).
		Where("tenant_id = ? AND processing_id = ?", tenantID, processingID).
		Update("gcs_upload_path", path).Error
}
