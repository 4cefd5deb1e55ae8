package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/formlead/formlead/internal/model"
)

const testProcessingID = "550e8400-e29b-41d4-a716-446655440000"

func seedUploaded(files *memFileRepo, store *memStore, filename, fileType, content string) string {
	key := BuildUploadKey("tenant-1", testProcessingID, filename)
	files.put(&model.RagUploadedFile{
		ProcessingID:     testProcessingID,
		TenantID:         "tenant-1",
		OriginalFilename: filename,
		FileType:         fileType,
		GCSUploadPath:    key,
		ProcessingStatus: model.StatusPendingUpload,
	})
	store.objects[objKey("uploads-bucket", key)] = []byte(content)
	return key
}

// ========== 预处理测试 ==========

func TestPreprocessTxtPassthrough(t *testing.T) {
	files := newMemFileRepo()
	store := newMemStore()
	queue := &mockQueue{}
	svc := NewService(files, &memTenantRepo{}, store, queue, nil, testConfig())

	key := seedUploaded(files, store, "notes.txt", "txt", "plain text content")

	if err := svc.Preprocess(context.Background(), "uploads-bucket", key); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusPendingImport {
		t.Errorf("status = %v, want %v", rec.ProcessingStatus, model.StatusPendingImport)
	}

	// 纯文本不经转换，导入来源就是原始对象
	tasks := queue.all()
	if len(tasks) != 1 {
		t.Fatalf("enqueued tasks = %d, want 1", len(tasks))
	}
	if tasks[0].GCSURIToImport != store.URI("uploads-bucket", key) {
		t.Errorf("import uri = %v, want %v", tasks[0].GCSURIToImport, store.URI("uploads-bucket", key))
	}
	if tasks[0].FileTypeForParsing != "txt" {
		t.Errorf("file type for parsing = %v, want txt", tasks[0].FileTypeForParsing)
	}
	if tasks[0].TenantID != "tenant-1" || tasks[0].ProcessingID != testProcessingID {
		t.Errorf("task identity = %+v", tasks[0])
	}
	if rec.GCSProcessedPath != "" {
		t.Errorf("processed path = %v, want empty for passthrough", rec.GCSProcessedPath)
	}
}

func TestPreprocessPdfPassthrough(t *testing.T) {
	files := newMemFileRepo()
	store := newMemStore()
	queue := &mockQueue{}
	svc := NewService(files, &memTenantRepo{}, store, queue, nil, testConfig())

	key := seedUploaded(files, store, "report.pdf", "pdf", "%PDF-1.4")

	if err := svc.Preprocess(context.Background(), "uploads-bucket", key); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	tasks := queue.all()
	if len(tasks) != 1 {
		t.Fatalf("enqueued tasks = %d, want 1", len(tasks))
	}
	// PDF 不在此处解析，由索引构建服务的布局感知解析处理
	if tasks[0].GCSURIToImport != store.URI("uploads-bucket", key) {
		t.Errorf("import uri = %v, want original object", tasks[0].GCSURIToImport)
	}
	if tasks[0].FileTypeForParsing != "pdf" {
		t.Errorf("file type for parsing = %v, want pdf", tasks[0].FileTypeForParsing)
	}
}

func TestPreprocessCSV(t *testing.T) {
	files := newMemFileRepo()
	store := newMemStore()
	queue := &mockQueue{}
	svc := NewService(files, &memTenantRepo{}, store, queue, nil, testConfig())

	key := seedUploaded(files, store, "data.csv", "csv", "a,b\nc,d")

	if err := svc.Preprocess(context.Background(), "uploads-bucket", key); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusPendingImport {
		t.Errorf("status = %v, want %v", rec.ProcessingStatus, model.StatusPendingImport)
	}

	// 处理结果对象名用主干换 .txt 后缀
	wantPath := "tenant-1/processed/" + testProcessingID + "_data.txt"
	if rec.GCSProcessedPath != wantPath {
		t.Errorf("processed path = %v, want %v", rec.GCSProcessedPath, wantPath)
	}

	data, ok := store.object("processed-bucket", wantPath)
	if !ok {
		t.Fatal("processed object not written")
	}
	if string(data) != "a, b\nc, d" {
		t.Errorf("processed text = %q, want %q", data, "a, b\nc, d")
	}

	tasks := queue.all()
	if len(tasks) != 1 {
		t.Fatalf("enqueued tasks = %d, want 1", len(tasks))
	}
	if tasks[0].GCSURIToImport != store.URI("processed-bucket", wantPath) {
		t.Errorf("import uri = %v, want processed object", tasks[0].GCSURIToImport)
	}
}

func TestPreprocessRedeliveredEventSkipped(t *testing.T) {
	files := newMemFileRepo()
	store := newMemStore()
	queue := &mockQueue{}
	svc := NewService(files, &memTenantRepo{}, store, queue, nil, testConfig())

	key := seedUploaded(files, store, "notes.txt", "txt", "content")
	// 记录已进入后续阶段
	files.put(&model.RagUploadedFile{
		ProcessingID:     testProcessingID,
		TenantID:         "tenant-1",
		OriginalFilename: "notes.txt",
		FileType:         "txt",
		GCSUploadPath:    key,
		ProcessingStatus: model.StatusImporting,
	})

	if err := svc.Preprocess(context.Background(), "uploads-bucket", key); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusImporting {
		t.Errorf("status = %v, redelivery must not change state", rec.ProcessingStatus)
	}
	if len(queue.all()) != 0 {
		t.Errorf("redelivery enqueued a task")
	}
}

func TestPreprocessFailedRecordRetried(t *testing.T) {
	files := newMemFileRepo()
	store := newMemStore()
	queue := &mockQueue{}
	svc := NewService(files, &memTenantRepo{}, store, queue, nil, testConfig())

	key := seedUploaded(files, store, "notes.txt", "txt", "content")
	files.put(&model.RagUploadedFile{
		ProcessingID:     testProcessingID,
		TenantID:         "tenant-1",
		OriginalFilename: "notes.txt",
		FileType:         "txt",
		GCSUploadPath:    key,
		ProcessingStatus: model.StatusFailed,
	})

	if err := svc.Preprocess(context.Background(), "uploads-bucket", key); err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusPendingImport {
		t.Errorf("status = %v, want %v after retry", rec.ProcessingStatus, model.StatusPendingImport)
	}
}

func TestPreprocessMalformedKeyIsPermanent(t *testing.T) {
	files := newMemFileRepo()
	queue := &mockQueue{}
	svc := NewService(files, &memTenantRepo{}, newMemStore(), queue, nil, testConfig())

	// 永久失败返回 nil，事件不再重投
	if err := svc.Preprocess(context.Background(), "uploads-bucket", "garbage-key"); err != nil {
		t.Errorf("Preprocess() error = %v, want nil for malformed key", err)
	}
	if len(queue.all()) != 0 {
		t.Errorf("malformed key enqueued a task")
	}
}

func TestPreprocessUnknownRecordIsPermanent(t *testing.T) {
	svc := NewService(newMemFileRepo(), &memTenantRepo{}, newMemStore(), &mockQueue{}, nil, testConfig())

	key := BuildUploadKey("tenant-1", testProcessingID, "notes.txt")
	if err := svc.Preprocess(context.Background(), "uploads-bucket", key); err != nil {
		t.Errorf("Preprocess() error = %v, want nil for unknown record", err)
	}
}

func TestPreprocessUnsupportedTypeFails(t *testing.T) {
	files := newMemFileRepo()
	store := newMemStore()
	queue := &mockQueue{}
	svc := NewService(files, &memTenantRepo{}, store, queue, nil, testConfig())

	key := seedUploaded(files, store, "legacy.doc", "doc", "binary")

	if err := svc.Preprocess(context.Background(), "uploads-bucket", key); err != nil {
		t.Fatalf("Preprocess() error = %v, want nil for permanent failure", err)
	}
	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusFailed {
		t.Errorf("status = %v, want %v", rec.ProcessingStatus, model.StatusFailed)
	}
	if len(queue.all()) != 0 {
		t.Errorf("unsupported type enqueued a task")
	}
}

func TestPreprocessEnqueueFailureMarksFailed(t *testing.T) {
	files := newMemFileRepo()
	store := newMemStore()
	queue := &mockQueue{err: errors.New("queue unavailable")}
	svc := NewService(files, &memTenantRepo{}, store, queue, nil, testConfig())

	key := seedUploaded(files, store, "notes.txt", "txt", "content")

	if err := svc.Preprocess(context.Background(), "uploads-bucket", key); err == nil {
		t.Error("Preprocess() error = nil, want transient error")
	}
	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusFailed {
		t.Errorf("status = %v, want %v", rec.ProcessingStatus, model.StatusFailed)
	}
}
