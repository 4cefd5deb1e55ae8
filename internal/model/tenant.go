// Package model 提供租户相关的数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant 租户
type Tenant struct {
	TenantID    string `json:"tenant_id" gorm:"type:varchar(36);primaryKey"`
	CompanyName string `json:"company_name" gorm:"type:varchar(255);not null"`
	Domain      string `json:"domain,omitempty" gorm:"type:varchar(255)"`
	APIKey      string `json:"-" gorm:"type:varchar(255);uniqueIndex"`

	// 租户检索语料库（Vertex AI RAG corpus 资源名）
	RagCorpusID          string `json:"rag_corpus_id,omitempty" gorm:"type:varchar(500)"`
	RagCorpusDisplayName string `json:"rag_corpus_display_name,omitempty" gorm:"type:varchar(255)"`

	IsDeleted bool      `json:"is_deleted" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.TenantID == "" {
		t.TenantID = uuid.New().String()
	}
	if t.APIKey == "" {
		t.APIKey = "flk_" + uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Tenant) TableName() string {
	return "tenants"
}
