package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/formlead/formlead/internal/model"
)

// ErrConfigNotFound GA4 配置不存在
var ErrConfigNotFound = errors.New("GA4 configuration not found")

// GAConfigRequest GA4 配置写入请求
type GAConfigRequest struct {
	FormID           string `json:"form_id" binding:"required"`
	GA4MeasurementID string `json:"ga4_measurement_id" binding:"required"`
	GA4APISecret     string `json:"ga4_api_secret" binding:"required"`
}

// CreateGAConfig 创建表单的 GA4 配置
func (s *Service) CreateGAConfig(ctx context.Context, tenantID string, req *GAConfigRequest) (*model.FormGAConfiguration, error) {
	cfg := &model.FormGAConfiguration{
		TenantID:         tenantID,
		FormID:           req.FormID,
		GA4MeasurementID: req.GA4MeasurementID,
		GA4APISecret:     req.GA4APISecret,
	}
	if err := s.gaConfigs.Create(cfg); err != nil {
		return nil, fmt.Errorf("failed to create GA4 configuration: %w", err)
	}
	return cfg, nil
}

// GetGAConfig 获取表单的 GA4 配置
func (s *Service) GetGAConfig(ctx context.Context, tenantID, formID string) (*model.FormGAConfiguration, error) {
	cfg, err := s.gaConfigs.GetByForm(tenantID, formID)
	if err != nil {
		return nil, ErrConfigNotFound
	}
	return cfg, nil
}

// ListGAConfigs 分页列出租户的 GA4 配置
func (s *Service) ListGAConfigs(ctx context.Context, tenantID string, offset, limit int) ([]*model.FormGAConfiguration, error) {
	return s.gaConfigs.ListByTenant(tenantID, offset, limit)
}

// UpdateGAConfig 更新表单的 GA4 配置
func (s *Service) UpdateGAConfig(ctx context.Context, tenantID, formID string, req *GAConfigRequest) (*model.FormGAConfiguration, error) {
	cfg, err := s.gaConfigs.GetByForm(tenantID, formID)
	if err != nil {
		return nil, ErrConfigNotFound
	}

	if req.GA4MeasurementID != "" {
		cfg.GA4MeasurementID = req.GA4MeasurementID
	}
	if req.GA4APISecret != "" {
		cfg.GA4APISecret = req.GA4APISecret
	}
	if err := s.gaConfigs.Update(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DeleteGAConfig 删除表单的 GA4 配置
func (s *Service) DeleteGAConfig(ctx context.Context, tenantID, formID string) error {
	found, err := s.gaConfigs.Delete(tenantID, formID)
	if err != nil {
		return err
	}
	if !found {
		return ErrConfigNotFound
	}
	return nil
}
