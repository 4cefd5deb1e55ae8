package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
)

// CloudTasksQueue Cloud Tasks 队列
// 任务以 HTTP POST 回调导入端点，失败由队列按自身策略重试
type CloudTasksQueue struct {
	client         *cloudtasks.Client
	queuePath      string
	importURL      string
	internalSecret string
}

// NewCloudTasksQueue 创建 Cloud Tasks 队列
func NewCloudTasksQueue(ctx context.Context, queuePath, importURL, internalSecret string) (*CloudTasksQueue, error) {
	if queuePath == "" || importURL == "" {
		return nil, fmt.Errorf("cloud tasks queue path and import URL are required")
	}
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloud Tasks client: %w", err)
	}
	return &CloudTasksQueue{
		client:         client,
		queuePath:      queuePath,
		importURL:      importURL,
		internalSecret: internalSecret,
	}, nil
}

// EnqueueImport 入队导入任务
func (q *CloudTasksQueue) EnqueueImport(ctx context.Context, task *ImportTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal import task: %w", err)
	}

	req := &cloudtaskspb.CreateTaskRequest{
		Parent: q.queuePath,
		Task: &cloudtaskspb.Task{
			MessageType: &cloudtaskspb.Task_HttpRequest{
				HttpRequest: &cloudtaskspb.HttpRequest{
					HttpMethod: cloudtaskspb.HttpMethod_POST,
					Url:        q.importURL,
					Headers: map[string]string{
						"Content-Type":      "application/json",
						"X-Internal-Secret": q.internalSecret,
					},
					Body: body,
				},
			},
		},
	}

	if _, err := q.client.CreateTask(ctx, req); err != nil {
		return fmt.Errorf("failed to create import task: %w", err)
	}
	return nil
}

// Close 关闭客户端
func (q *CloudTasksQueue) Close() error {
	return q.client.Close()
}
