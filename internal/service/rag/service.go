package rag

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/formlead/formlead/internal/config"
	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/storage"
	"github.com/formlead/formlead/internal/service/tasks"
	"github.com/formlead/formlead/internal/service/vertex"
)

var (
	// ErrNoValidFiles 批次中没有任何文件被接受
	ErrNoValidFiles = errors.New("no valid files in upload batch")
	// ErrNotFound 记录不存在或不属于该租户
	ErrNotFound = errors.New("file record not found")
	// ErrCorpusNotConfigured 租户未配置检索语料库
	ErrCorpusNotConfigured = errors.New("RAG Corpus ID not configured for tenant")
)

// allowedFileTypes 允许上传的文件类型
var allowedFileTypes = map[string]bool{
	"pdf":  true,
	"docx": true,
	"csv":  true,
	"txt":  true,
}

// FileRepo 文件元数据仓库接口
type FileRepo interface {
	Create(file *model.RagUploadedFile) error
	GetByID(tenantID, processingID string) (*model.RagUploadedFile, error)
	ListByTenant(tenantID string) ([]*model.RagUploadedFile, error)
	ListByStatus(status model.ProcessingStatus) ([]*model.RagUploadedFile, error)
	Delete(tenantID, processingID string) (bool, error)
	UpdateStatus(tenantID, processingID string, to model.ProcessingStatus, message string, extra map[string]interface{}) error
	SetUploadPath(tenantID, processingID, path string) error
}

// TenantRepo 租户仓库接口
type TenantRepo interface {
	GetByID(tenantID string) (*model.Tenant, error)
}

// Service 文档摄取流水线服务
// 五个阶段共享同一份持久化元数据记录，阶段之间不保留进程内状态
type Service struct {
	files   FileRepo
	tenants TenantRepo
	store   storage.Storage
	queue   tasks.Queue
	ragData vertex.RagData
	cfg     *config.Config

	// objectWritten 上传完成钩子
	// GCS 环境下事件由 Eventarc 投递，本地与 MinIO 环境通过钩子进程内触发预处理
	objectWritten func(bucket, objectName string)
}

// NewService 创建摄取流水线服务
func NewService(files FileRepo, tenants TenantRepo, store storage.Storage, queue tasks.Queue, ragData vertex.RagData, cfg *config.Config) *Service {
	return &Service{
		files:   files,
		tenants: tenants,
		store:   store,
		queue:   queue,
		ragData: ragData,
		cfg:     cfg,
	}
}

// SetObjectWrittenHook 绑定上传完成钩子
func (s *Service) SetObjectWrittenHook(hook func(bucket, objectName string)) {
	s.objectWritten = hook
}

// UploadFile 上传批次中的单个文件
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
	// ReadErr 调用方读取文件内容时的错误，置位的文件直接拒绝
	ReadErr error
}

// FileResult 单文件受理结果
type FileResult struct {
	ProcessingID string `json:"processing_id,omitempty"`
	Filename     string `json:"original_filename"`
	Accepted     bool   `json:"accepted"`
	Reason       string `json:"reason,omitempty"`
	StatusURL    string `json:"status_url,omitempty"`
}

// Intake 阶段1：上传受理
// 逐文件校验并落库，接受的文件启动后台上传，不等待摄取完成
// 单个文件的失败不影响批次内其余文件；批次全部被拒时返回 ErrNoValidFiles
func (s *Service) Intake(ctx context.Context, tenantID, userID string, files []*UploadFile) ([]*FileResult, error) {
	results := make([]*FileResult, 0, len(files))
	accepted := 0

	for _, f := range files {
		result := &FileResult{Filename: f.Filename}
		results = append(results, result)

		// 浏览器端可能带路径，对象键只接受裸文件名
		name := SanitizeFilename(f.Filename)

		ext := FileExt(name)
		if !allowedFileTypes[ext] {
			result.Reason = "unsupported file type: " + ext
			continue
		}
		// 大小校验先于任何存储写入
		if f.Size > s.cfg.RAG.MaxFileSize {
			result.Reason = "file exceeds maximum allowed size"
			continue
		}
		if f.ReadErr != nil {
			log.Printf("intake: failed to read %s: %v", f.Filename, f.ReadErr)
			result.Reason = "failed to read file content"
			continue
		}

		rec := &model.RagUploadedFile{
			ProcessingID:     uuid.New().String(),
			TenantID:         tenantID,
			UploadedByUserID: userID,
			OriginalFilename: name,
			FileSize:         f.Size,
			FileType:         ext,
			ProcessingStatus: model.StatusPendingUpload,
		}
		if err := s.files.Create(rec); err != nil {
			log.Printf("intake: failed to create record for %s: %v", f.Filename, err)
			result.Reason = "failed to create processing record"
			continue
		}

		result.ProcessingID = rec.ProcessingID
		result.Accepted = true
		accepted++

		// 阶段2后台执行，调用方立即拿到 202 语义的受理结果
		go s.uploadObject(context.Background(), rec, f.Data, f.ContentType)
	}

	if accepted == 0 {
		return results, ErrNoValidFiles
	}
	return results, nil
}

// Get 状态查询，记录不存在或属于其他租户时返回 ErrNotFound
func (s *Service) Get(ctx context.Context, tenantID, processingID string) (*model.RagUploadedFile, error) {
	rec, err := s.files.GetByID(tenantID, processingID)
	if err != nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// List 列出租户的全部文件记录
func (s *Service) List(ctx context.Context, tenantID string) ([]*model.RagUploadedFile, error) {
	return s.files.ListByTenant(tenantID)
}

// Delete 删除文件：元数据记录、存储对象与检索索引条目级联清理
// 存储与索引侧的清理失败记录日志但不阻断记录删除
func (s *Service) Delete(ctx context.Context, tenantID, processingID string) error {
	rec, err := s.files.GetByID(tenantID, processingID)
	if err != nil {
		return ErrNotFound
	}

	if rec.ProcessingStatus.CanTransition(model.StatusDeleting) {
		if err := s.files.UpdateStatus(tenantID, processingID, model.StatusDeleting, "deletion requested", nil); err != nil {
			log.Printf("delete %s: failed to mark deleting: %v", processingID, err)
		}
	}

	// 存储对象
	if rec.GCSUploadPath != "" {
		if err := s.store.Delete(ctx, s.cfg.Storage.UploadsBucket, rec.GCSUploadPath); err != nil {
			log.Printf("delete %s: failed to remove upload object: %v", processingID, err)
		}
	}
	if rec.GCSProcessedPath != "" {
		if err := s.store.Delete(ctx, s.cfg.Storage.ProcessedBucket, rec.GCSProcessedPath); err != nil {
			log.Printf("delete %s: failed to remove processed object: %v", processingID, err)
		}
	}

	// 检索索引条目
	s.deleteIndexEntry(ctx, rec)

	found, err := s.files.Delete(tenantID, processingID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// deleteIndexEntry 删除已导入文件对应的索引条目
func (s *Service) deleteIndexEntry(ctx context.Context, rec *model.RagUploadedFile) {
	if s.ragData == nil {
		return
	}
	// 只有完成导入的文件才会有索引条目
	if rec.ProcessingStatus != model.StatusCompleted {
		return
	}

	if rec.VertexAIRagFileID != "" {
		if err := s.ragData.DeleteFile(ctx, rec.VertexAIRagFileID); err != nil {
			log.Printf("delete %s: failed to remove rag file %s: %v", rec.ProcessingID, rec.VertexAIRagFileID, err)
		}
		return
	}

	// 没有记录文件ID时按导入来源地址匹配
	tenant, err := s.tenants.GetByID(rec.TenantID)
	if err != nil || tenant.RagCorpusID == "" {
		return
	}

	importURI := s.importURI(rec)
	if importURI == "" {
		return
	}

	infos, err := s.ragData.ListFiles(ctx, tenant.RagCorpusID)
	if err != nil {
		log.Printf("delete %s: failed to list rag files: %v", rec.ProcessingID, err)
		return
	}
	for _, info := range infos {
		if info.GCSURI == importURI {
			if err := s.ragData.DeleteFile(ctx, info.Name); err != nil {
				log.Printf("delete %s: failed to remove rag file %s: %v", rec.ProcessingID, info.Name, err)
			}
			return
		}
	}
}

// importURI 记录导入时使用的来源地址
func (s *Service) importURI(rec *model.RagUploadedFile) string {
	if rec.GCSProcessedPath != "" {
		return s.store.URI(s.cfg.Storage.ProcessedBucket, rec.GCSProcessedPath)
	}
	if rec.GCSUploadPath != "" {
		return s.store.URI(s.cfg.Storage.UploadsBucket, rec.GCSUploadPath)
	}
	return ""
}
