package model

import "time"

// 线索状态
const (
	SubmissionStatusNew          = "new"
	SubmissionStatusContacted    = "contacted"
	SubmissionStatusQualified    = "qualified"
	SubmissionStatusConverted    = "converted"
	SubmissionStatusUnconverted  = "unconverted"
	SubmissionStatusDisqualified = "disqualified"
	SubmissionStatusSpam         = "spam"
)

// ContactSubmission 联系表单提交记录
type ContactSubmission struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID string `json:"tenant_id" gorm:"type:varchar(36);index"`
	FormID   string `json:"form_id,omitempty" gorm:"type:varchar(100);index"`

	Name    string `json:"name" gorm:"type:text"`
	Email   string `json:"email" gorm:"type:text"`
	Message string `json:"message" gorm:"type:text"`

	// GA4 归因信息，由前端小组件透传
	GAClientID  string `json:"ga_client_id,omitempty" gorm:"type:text"`
	GASessionID string `json:"ga_session_id,omitempty" gorm:"type:text"`

	SubmissionStatus   string `json:"submission_status" gorm:"type:varchar(20);default:'new'"`
	StatusChangeReason string `json:"status_change_reason,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ContactSubmission) TableName() string {
	return "contact_submissions"
}
