package rag

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/docx"

	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service/tasks"
)

// Preprocess 阶段3：预处理
// 由存储写入事件触发。键解析失败与不支持的类型属于永久失败，返回 nil 让
// 基础设施不再重投；瞬时失败先尽力把记录标记为 failed 再返回错误，由
// 基础设施按自身策略重试
func (s *Service) Preprocess(ctx context.Context, bucket, objectKey string) error {
	tenantID, processingID, filename, err := ParseUploadKey(objectKey)
	if err != nil {
		log.Printf("preprocess: permanent failure, %v", err)
		return nil
	}

	rec, err := s.files.GetByID(tenantID, processingID)
	if err != nil {
		log.Printf("preprocess %s: no record for object %s: %v", processingID, objectKey, err)
		return nil
	}

	// 事件至少一次投递：已越过 pending_upload 的记录视为重复投递，跳过
	if rec.ProcessingStatus != model.StatusPendingUpload && rec.ProcessingStatus != model.StatusFailed {
		log.Printf("preprocess %s: redelivered event ignored, status=%s", processingID, rec.ProcessingStatus)
		return nil
	}

	if err := s.files.UpdateStatus(tenantID, processingID, model.StatusPreprocessing, "extracting text", nil); err != nil {
		log.Printf("preprocess %s: failed to enter preprocessing: %v", processingID, err)
		return nil
	}

	importURI, processedPath, err := s.extractText(ctx, bucket, objectKey, rec)
	if err != nil {
		s.markFailed(tenantID, processingID, "preprocessing failed: "+err.Error())
		return err
	}
	if importURI == "" {
		// 不支持预处理的类型，记录已标记为 failed
		return nil
	}

	extra := map[string]interface{}{}
	if processedPath != "" {
		extra["gcs_processed_path"] = processedPath
	}
	if err := s.files.UpdateStatus(tenantID, processingID, model.StatusPendingImport, "queued for import", extra); err != nil {
		s.markFailed(tenantID, processingID, "failed to record preprocessing result: "+err.Error())
		return err
	}

	task := &tasks.ImportTask{
		ProcessingID:       processingID,
		TenantID:           tenantID,
		GCSURIToImport:     importURI,
		OriginalFilename:   filename,
		FileTypeForParsing: rec.FileType,
	}
	if err := s.queue.EnqueueImport(ctx, task); err != nil {
		s.markFailed(tenantID, processingID, "failed to enqueue import task: "+err.Error())
		return err
	}
	return nil
}

// extractText 按文件类型抽取纯文本
// 返回导入来源地址与新写入的处理结果对象键；不支持的类型返回空地址
func (s *Service) extractText(ctx context.Context, bucket, objectKey string, rec *model.RagUploadedFile) (importURI, processedPath string, err error) {
	switch rec.FileType {
	case "txt", "pdf":
		// 纯文本直接导入；PDF 的解析由索引构建服务完成
		return s.store.URI(bucket, objectKey), "", nil

	case "docx":
		text, err := s.extractDocxText(ctx, bucket, objectKey)
		if err != nil {
			return "", "", err
		}
		return s.writeProcessed(ctx, rec, text)

	case "csv":
		text, err := s.extractCSVText(ctx, bucket, objectKey)
		if err != nil {
			return "", "", err
		}
		return s.writeProcessed(ctx, rec, text)

	default:
		s.markFailed(rec.TenantID, rec.ProcessingID, "unsupported file type for preprocessing: "+rec.FileType)
		return "", "", nil
	}
}

// extractDocxText 抽取 Word 文档文本，拼接非空段落
func (s *Service) extractDocxText(ctx context.Context, bucket, objectKey string) (string, error) {
	reader, err := s.store.Get(ctx, bucket, objectKey)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	parser, err := docx.NewDocxParser(ctx, &docx.Config{
		ToSections:      false,
		IncludeComments: false,
		IncludeHeaders:  false,
		IncludeFooters:  false,
		IncludeTables:   true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create docx parser: %w", err)
	}

	docs, err := parser.Parse(ctx, reader)
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}

	var paragraphs []string
	for _, d := range docs {
		for _, line := range strings.Split(d.Content, "\n") {
			if strings.TrimSpace(line) != "" {
				paragraphs = append(paragraphs, line)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// extractCSVText 抽取 CSV 文本，每行单元格以 ", " 连接，一行一条记录
func (s *Service) extractCSVText(ctx context.Context, bucket, objectKey string) (string, error) {
	reader, err := s.store.Get(ctx, bucket, objectKey)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	var lines []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse csv: %w", err)
		}
		lines = append(lines, strings.Join(row, ", "))
	}
	return strings.Join(lines, "\n"), nil
}

// writeProcessed 把抽取文本写入处理结果桶
func (s *Service) writeProcessed(ctx context.Context, rec *model.RagUploadedFile, text string) (importURI, processedPath string, err error) {
	processedPath = BuildProcessedKey(rec.TenantID, rec.ProcessingID, rec.OriginalFilename)
	bucket := s.cfg.Storage.ProcessedBucket

	data := []byte(text)
	if err := s.store.Save(ctx, bucket, processedPath, bytes.NewReader(data), int64(len(data)), "text/plain"); err != nil {
		return "", "", fmt.Errorf("failed to write processed text: %w", err)
	}
	return s.store.URI(bucket, processedPath), processedPath, nil
}

// markFailed 尽力把记录标记为 failed，二次失败只记日志
func (s *Service) markFailed(tenantID, processingID, message string) {
	if err := s.files.UpdateStatus(tenantID, processingID, model.StatusFailed, message, nil); err != nil {
		log.Printf("pipeline %s: failed to record failure status: %v", processingID, err)
	}
}
