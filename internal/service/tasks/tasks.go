package tasks

import (
	"context"

	"github.com/formlead/formlead/internal/config"
)

// ImportTask 阶段4导入任务载荷
type ImportTask struct {
	ProcessingID       string `json:"processing_id"`
	TenantID           string `json:"tenant_id"`
	GCSURIToImport     string `json:"gcs_uri_to_import"`
	OriginalFilename   string `json:"original_filename"`
	FileTypeForParsing string `json:"file_type_for_parsing"`
}

// Queue 任务队列接口
// 入队即返回，任务由队列基础设施异步投递到导入回调端点
type Queue interface {
	EnqueueImport(ctx context.Context, task *ImportTask) error
}

// QueueType 队列类型
type QueueType string

const (
	QueueTypeCloudTasks QueueType = "cloudtasks"
	QueueTypeLocal      QueueType = "local"
)

// New 按配置创建任务队列
// local 队列需要之后通过 SetHandler 绑定导入处理函数
func New(ctx context.Context, cfg *config.Config) (Queue, error) {
	switch QueueType(cfg.Tasks.Type) {
	case QueueTypeCloudTasks:
		return NewCloudTasksQueue(ctx, cfg.Tasks.QueuePath, cfg.Tasks.ImportURL, cfg.Auth.InternalSecret)
	default:
		return NewLocalQueue(), nil
	}
}
