package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/tasks"
	"github.com/formlead/formlead/internal/service/vertex"
)

func seedPendingImport(files *memFileRepo, fileType string) *tasks.ImportTask {
	files.put(&model.RagUploadedFile{
		ProcessingID:     testProcessingID,
		TenantID:         "tenant-1",
		OriginalFilename: "file." + fileType,
		FileType:         fileType,
		ProcessingStatus: model.StatusPendingImport,
	})
	return &tasks.ImportTask{
		ProcessingID:       testProcessingID,
		TenantID:           "tenant-1",
		GCSURIToImport:     "mem://uploads-bucket/tenant-1/uploads/" + testProcessingID + "_file." + fileType,
		OriginalFilename:   "file." + fileType,
		FileTypeForParsing: fileType,
	}
}

func tenantWithCorpus() *memTenantRepo {
	return &memTenantRepo{tenants: map[string]*model.Tenant{
		"tenant-1": {TenantID: "tenant-1", RagCorpusID: "projects/p/locations/r/ragCorpora/1"},
	}}
}

// ========== 导入提交测试 ==========

func TestImportSubmitsOperation(t *testing.T) {
	files := newMemFileRepo()
	task := seedPendingImport(files, "txt")

	var gotReq *vertex.ImportRequest
	ragData := &mockRagData{
		importFn: func(ctx context.Context, req *vertex.ImportRequest) (string, error) {
			gotReq = req
			return "operations/op-123", nil
		},
	}
	svc := NewService(files, tenantWithCorpus(), newMemStore(), &mockQueue{}, ragData, testConfig())

	if err := svc.Import(context.Background(), task); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if gotReq.CorpusName != "projects/p/locations/r/ragCorpora/1" {
		t.Errorf("corpus = %v", gotReq.CorpusName)
	}
	if gotReq.GCSURI != task.GCSURIToImport {
		t.Errorf("gcs uri = %v, want %v", gotReq.GCSURI, task.GCSURIToImport)
	}
	if gotReq.ChunkSize != 1000 || gotReq.ChunkOverlap != 200 {
		t.Errorf("chunking = %d/%d, want 1000/200", gotReq.ChunkSize, gotReq.ChunkOverlap)
	}
	if gotReq.AdvancedParser {
		t.Errorf("advanced parser enabled for txt")
	}

	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusImporting {
		t.Errorf("status = %v, want %v", rec.ProcessingStatus, model.StatusImporting)
	}
	if rec.VertexAIOperationName != "operations/op-123" {
		t.Errorf("operation name = %v, want operations/op-123", rec.VertexAIOperationName)
	}
}

func TestImportPdfUsesAdvancedParser(t *testing.T) {
	files := newMemFileRepo()
	task := seedPendingImport(files, "pdf")

	var gotReq *vertex.ImportRequest
	ragData := &mockRagData{
		importFn: func(ctx context.Context, req *vertex.ImportRequest) (string, error) {
			gotReq = req
			return "operations/op-pdf", nil
		},
	}
	svc := NewService(files, tenantWithCorpus(), newMemStore(), &mockQueue{}, ragData, testConfig())

	if err := svc.Import(context.Background(), task); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !gotReq.AdvancedParser {
		t.Error("advanced parser not enabled for pdf")
	}
}

func TestImportCorpusNotConfigured(t *testing.T) {
	files := newMemFileRepo()
	task := seedPendingImport(files, "txt")

	tenants := &memTenantRepo{tenants: map[string]*model.Tenant{
		"tenant-1": {TenantID: "tenant-1"},
	}}
	svc := NewService(files, tenants, newMemStore(), &mockQueue{}, &mockRagData{}, testConfig())

	err := svc.Import(context.Background(), task)
	if !errors.Is(err, ErrCorpusNotConfigured) {
		t.Fatalf("Import() error = %v, want ErrCorpusNotConfigured", err)
	}

	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusFailed {
		t.Errorf("status = %v, want %v", rec.ProcessingStatus, model.StatusFailed)
	}
	if rec.StatusMessage != "RAG Corpus ID not configured for tenant" {
		t.Errorf("status message = %q", rec.StatusMessage)
	}
}

func TestImportSubmissionFailureMarksFailed(t *testing.T) {
	files := newMemFileRepo()
	task := seedPendingImport(files, "txt")

	ragData := &mockRagData{
		importFn: func(ctx context.Context, req *vertex.ImportRequest) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	svc := NewService(files, tenantWithCorpus(), newMemStore(), &mockQueue{}, ragData, testConfig())

	if err := svc.Import(context.Background(), task); err == nil {
		t.Error("Import() error = nil, want submission error")
	}
	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusFailed {
		t.Errorf("status = %v, want %v", rec.ProcessingStatus, model.StatusFailed)
	}
}

func TestImportUnknownRecordDropped(t *testing.T) {
	svc := NewService(newMemFileRepo(), tenantWithCorpus(), newMemStore(), &mockQueue{}, &mockRagData{}, testConfig())

	err := svc.Import(context.Background(), &tasks.ImportTask{
		ProcessingID: testProcessingID,
		TenantID:     "tenant-1",
	})
	if err != nil {
		t.Errorf("Import() error = %v, want nil for unknown record", err)
	}
}

func TestImportRedeliveredTaskSkipped(t *testing.T) {
	files := newMemFileRepo()
	task := seedPendingImport(files, "txt")
	files.put(&model.RagUploadedFile{
		ProcessingID:     testProcessingID,
		TenantID:         "tenant-1",
		FileType:         "txt",
		ProcessingStatus: model.StatusCompleted,
	})

	called := false
	ragData := &mockRagData{
		importFn: func(ctx context.Context, req *vertex.ImportRequest) (string, error) {
			called = true
			return "operations/op", nil
		},
	}
	svc := NewService(files, tenantWithCorpus(), newMemStore(), &mockQueue{}, ragData, testConfig())

	if err := svc.Import(context.Background(), task); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if called {
		t.Error("redelivered task resubmitted import")
	}
	rec, _ := files.GetByID("tenant-1", testProcessingID)
	if rec.ProcessingStatus != model.StatusCompleted {
		t.Errorf("status = %v, redelivery must not change state", rec.ProcessingStatus)
	}
}
