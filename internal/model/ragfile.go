package model

import (
	"time"
)

// ProcessingStatus RAG 文件处理状态
// 状态字符串按原样持久化，是四个流水线阶段之间唯一的协调手段
type ProcessingStatus string

const (
	// StatusPendingUpload 元数据已写入，等待上传到对象存储
	StatusPendingUpload ProcessingStatus = "pending_upload"
	// StatusPreprocessing 预处理中（文本抽取）
	StatusPreprocessing ProcessingStatus = "preprocessing"
	// StatusPendingImport 预处理完成，等待导入任务
	StatusPendingImport ProcessingStatus = "pending_import"
	// StatusImporting Vertex AI RAG 导入操作进行中
	StatusImporting ProcessingStatus = "importing"
	// StatusCompleted 导入完成
	StatusCompleted ProcessingStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed ProcessingStatus = "failed"
	// StatusDeleting 删除中（预留）
	StatusDeleting ProcessingStatus = "deleting"
	// StatusDeleted 已删除（预留）
	StatusDeleted ProcessingStatus = "deleted"
)

// statusTransitions 状态机转移表
// 流水线只能前进；failed 允许被基础设施重试重新进入
var statusTransitions = map[ProcessingStatus][]ProcessingStatus{
	StatusPendingUpload: {StatusPreprocessing, StatusFailed, StatusDeleting},
	StatusPreprocessing: {StatusPendingImport, StatusFailed, StatusDeleting},
	StatusPendingImport: {StatusImporting, StatusFailed, StatusDeleting},
	StatusImporting:     {StatusCompleted, StatusFailed, StatusDeleting},
	StatusFailed:        {StatusPreprocessing, StatusImporting, StatusDeleting},
	StatusCompleted:     {StatusDeleting},
	StatusDeleting:      {StatusDeleted},
	StatusDeleted:       {},
}

// CanTransition 判断状态转移是否合法
func (s ProcessingStatus) CanTransition(to ProcessingStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 判断是否为终态
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDeleted
}

// Valid 判断状态值是否已知
func (s ProcessingStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// RagUploadedFile RAG 上传文件元数据记录
// 每个上传文件一条，processing_id 贯穿全部流水线阶段
type RagUploadedFile struct {
	ProcessingID     string           `json:"processing_id" gorm:"type:varchar(36);primaryKey"`
	TenantID         string           `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	UploadedByUserID string           `json:"uploaded_by_user_id" gorm:"type:varchar(36)"`
	OriginalFilename string           `json:"original_filename" gorm:"type:varchar(255);not null"`
	FileSize         int64            `json:"file_size"`
	FileType         string           `json:"file_type" gorm:"type:varchar(10)"`
	GCSUploadPath    string           `json:"gcs_upload_path" gorm:"type:varchar(500)"`
	GCSProcessedPath string           `json:"gcs_processed_path,omitempty" gorm:"type:varchar(500)"`
	ProcessingStatus ProcessingStatus `json:"processing_status" gorm:"type:varchar(20);index;default:'pending_upload'"`
	StatusMessage    string           `json:"status_message,omitempty" gorm:"type:text"`

	// Vertex AI 导入操作句柄与生成的索引文件 ID
	VertexAIOperationName string `json:"vertex_ai_operation_name,omitempty" gorm:"type:varchar(500)"`
	VertexAIRagFileID     string `json:"vertex_ai_rag_file_id,omitempty" gorm:"type:varchar(500)"`

	UploadTimestamp        time.Time `json:"upload_timestamp" gorm:"autoCreateTime"`
	LastProcessedTimestamp time.Time `json:"last_processed_timestamp" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (RagUploadedFile) TableName() string {
	return "rag_uploaded_files"
}
