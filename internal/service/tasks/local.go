package tasks

import (
	"context"
	"log"
	"sync"
)

// ImportHandler 导入任务处理函数
type ImportHandler func(ctx context.Context, task *ImportTask) error

// LocalQueue 本地进程内队列，开发与测试环境使用
// 入队后在独立 goroutine 中调用处理函数，模拟队列的异步投递
type LocalQueue struct {
	mu      sync.RWMutex
	handler ImportHandler
}

// NewLocalQueue 创建本地队列
func NewLocalQueue() *LocalQueue {
	return &LocalQueue{}
}

// SetHandler 绑定导入处理函数
func (q *LocalQueue) SetHandler(h ImportHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = h
}

// EnqueueImport 入队导入任务
func (q *LocalQueue) EnqueueImport(ctx context.Context, task *ImportTask) error {
	q.mu.RLock()
	h := q.handler
	q.mu.RUnlock()

	if h == nil {
		log.Printf("local queue: no import handler bound, dropping task %s", task.ProcessingID)
		return nil
	}

	go func() {
		if err := h(context.Background(), task); err != nil {
			log.Printf("local queue: import task %s failed: %v", task.ProcessingID, err)
		}
	}()
	return nil
}
