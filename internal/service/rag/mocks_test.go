package rag

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/formlead/formlead/internal/config"
	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/tasks"
	"github.com/formlead/formlead/internal/service/vertex"
)

// ========== 测试替身 ==========

// memFileRepo 内存文件仓库，转移校验语义与数据库实现一致
type memFileRepo struct {
	mu        sync.Mutex
	records   map[string]*model.RagUploadedFile
	createErr error
	updateErr error
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{records: make(map[string]*model.RagUploadedFile)}
}

func recKey(tenantID, processingID string) string {
	return tenantID + "/" + processingID
}

func (r *memFileRepo) Create(file *model.RagUploadedFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *file
	r.records[recKey(file.TenantID, file.ProcessingID)] = &cp
	return nil
}

func (r *memFileRepo) GetByID(tenantID, processingID string) (*model.RagUploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recKey(tenantID, processingID)]
	if !ok {
		return nil, fmt.Errorf("record not found")
	}
	cp := *rec
	return &cp, nil
}

func (r *memFileRepo) ListByTenant(tenantID string) ([]*model.RagUploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RagUploadedFile
	for _, rec := range r.records {
		if rec.TenantID == tenantID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memFileRepo) ListByStatus(status model.ProcessingStatus) ([]*model.RagUploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RagUploadedFile
	for _, rec := range r.records {
		if rec.ProcessingStatus == status {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memFileRepo) Delete(tenantID, processingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := recKey(tenantID, processingID)
	if _, ok := r.records[k]; !ok {
		return false, nil
	}
	delete(r.records, k)
	return true, nil
}

func (r *memFileRepo) UpdateStatus(tenantID, processingID string, to model.ProcessingStatus, message string, extra map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	rec, ok := r.records[recKey(tenantID, processingID)]
	if !ok {
		return fmt.Errorf("record not found")
	}
	if !rec.ProcessingStatus.CanTransition(to) {
		return fmt.Errorf("illegal transition %s -> %s", rec.ProcessingStatus, to)
	}
	rec.ProcessingStatus = to
	rec.StatusMessage = message
	if v, ok := extra["gcs_processed_path"].(string); ok {
		rec.GCSProcessedPath = v
	}
	if v, ok := extra["vertex_ai_operation_name"].(string); ok {
		rec.VertexAIOperationName = v
	}
	return nil
}

func (r *memFileRepo) SetUploadPath(tenantID, processingID, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recKey(tenantID, processingID)]
	if !ok {
		return fmt.Errorf("record not found")
	}
	rec.GCSUploadPath = path
	return nil
}

// put 直接放入一条记录，绕过转移校验
func (r *memFileRepo) put(rec *model.RagUploadedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[recKey(rec.TenantID, rec.ProcessingID)] = &cp
}

// memTenantRepo 内存租户仓库
type memTenantRepo struct {
	tenants map[string]*model.Tenant
}

func (r *memTenantRepo) GetByID(tenantID string) (*model.Tenant, error) {
	t, ok := r.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("tenant not found")
	}
	return t, nil
}

// memStore 内存对象存储
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes []string
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func objKey(bucket, objectName string) string {
	return bucket + "/" + objectName
}

func (s *memStore) Save(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[objKey(bucket, objectName)] = data
	return nil
}

func (s *memStore) Get(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objKey(bucket, objectName)]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", objKey(bucket, objectName))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Delete(ctx context.Context, bucket, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, objKey(bucket, objectName))
	delete(s.objects, objKey(bucket, objectName))
	return nil
}

func (s *memStore) URI(bucket, objectName string) string {
	return "mem://" + bucket + "/" + objectName
}

func (s *memStore) object(bucket, objectName string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objKey(bucket, objectName)]
	return data, ok
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// mockQueue 记录入队任务的队列
type mockQueue struct {
	mu    sync.Mutex
	tasks []*tasks.ImportTask
	err   error
}

func (q *mockQueue) EnqueueImport(ctx context.Context, task *tasks.ImportTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *mockQueue) all() []*tasks.ImportTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*tasks.ImportTask(nil), q.tasks...)
}

// mockRagData 可注入行为的 RAG 数据面
type mockRagData struct {
	importFn func(ctx context.Context, req *vertex.ImportRequest) (string, error)
	getOpFn  func(ctx context.Context, operationName string) (*vertex.OperationStatus, error)
	listFn   func(ctx context.Context, corpusName string) ([]*vertex.RagFileInfo, error)

	mu           sync.Mutex
	deletedFiles []string
}

func (m *mockRagData) ImportFiles(ctx context.Context, req *vertex.ImportRequest) (string, error) {
	if m.importFn != nil {
		return m.importFn(ctx, req)
	}
	return "operations/default", nil
}

func (m *mockRagData) GetOperation(ctx context.Context, operationName string) (*vertex.OperationStatus, error) {
	if m.getOpFn != nil {
		return m.getOpFn(ctx, operationName)
	}
	return &vertex.OperationStatus{Name: operationName, Done: false}, nil
}

func (m *mockRagData) CreateCorpus(ctx context.Context, parent, displayName string) (string, error) {
	return parent + "/ragCorpora/1", nil
}

func (m *mockRagData) ListFiles(ctx context.Context, corpusName string) ([]*vertex.RagFileInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx, corpusName)
	}
	return nil, nil
}

func (m *mockRagData) DeleteFile(ctx context.Context, ragFileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedFiles = append(m.deletedFiles, ragFileName)
	return nil
}

func (m *mockRagData) DeleteCorpus(ctx context.Context, corpusName string) error {
	return nil
}

// testConfig 测试配置
func testConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			Type:            "local",
			UploadsBucket:   "uploads-bucket",
			ProcessedBucket: "processed-bucket",
		},
		RAG: config.RAGConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			MaxFileSize:  10 * 1024 * 1024,
		},
	}
}
