package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FormGAConfiguration 表单的 GA4 Measurement Protocol 配置
type FormGAConfiguration struct {
	ID       string `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:varchar(36);index:idx_ga_tenant_form,unique"`
	FormID   string `json:"form_id" gorm:"type:varchar(100);index:idx_ga_tenant_form,unique"`

	GA4MeasurementID string `json:"ga4_measurement_id" gorm:"type:varchar(50)"`
	GA4APISecret     string `json:"-" gorm:"type:varchar(100)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子
func (c *FormGAConfiguration) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (FormGAConfiguration) TableName() string {
	return "form_ga_configurations"
}
