package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/tasks"
	"github.com/formlead/formlead/internal/service/vertex"
)

// Import 阶段4：导入提交
// 提交后立即记录操作句柄并置为 importing，不等待导入完成（阶段5轮询）
// 返回错误时任务基础设施会按自身策略重投
func (s *Service) Import(ctx context.Context, task *tasks.ImportTask) error {
	rec, err := s.files.GetByID(task.TenantID, task.ProcessingID)
	if err != nil {
		log.Printf("import %s: no record, dropping task: %v", task.ProcessingID, err)
		return nil
	}

	// 任务至少一次投递：已提交或已结束的记录跳过
	if rec.ProcessingStatus != model.StatusPendingImport && rec.ProcessingStatus != model.StatusFailed {
		log.Printf("import %s: redelivered task ignored, status=%s", task.ProcessingID, rec.ProcessingStatus)
		return nil
	}

	tenant, err := s.tenants.GetByID(task.TenantID)
	if err != nil {
		s.markFailed(task.TenantID, task.ProcessingID, "tenant lookup failed: "+err.Error())
		return err
	}
	if tenant.RagCorpusID == "" {
		s.markFailed(task.TenantID, task.ProcessingID, ErrCorpusNotConfigured.Error())
		return ErrCorpusNotConfigured
	}
	if s.ragData == nil {
		s.markFailed(task.TenantID, task.ProcessingID, "index build service unavailable")
		return fmt.Errorf("rag data client not configured")
	}

	opName, err := s.ragData.ImportFiles(ctx, &vertex.ImportRequest{
		CorpusName:     tenant.RagCorpusID,
		GCSURI:         task.GCSURIToImport,
		ChunkSize:      s.cfg.RAG.ChunkSize,
		ChunkOverlap:   s.cfg.RAG.ChunkOverlap,
		AdvancedParser: task.FileTypeForParsing == "pdf",
	})
	if err != nil {
		s.markFailed(task.TenantID, task.ProcessingID, "import submission failed: "+err.Error())
		return fmt.Errorf("failed to submit import for %s: %w", task.ProcessingID, err)
	}

	extra := map[string]interface{}{"vertex_ai_operation_name": opName}
	if err := s.files.UpdateStatus(task.TenantID, task.ProcessingID, model.StatusImporting,
		"import operation submitted", extra); err != nil {
		log.Printf("import %s: failed to record operation handle: %v", task.ProcessingID, err)
		return err
	}
	return nil
}
