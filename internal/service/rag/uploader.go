package rag

import (
	"bytes"
	"context"
	"log"

	"github.com/formlead/formlead/internal/model"
)

// uploadObject 阶段2：后台上传
// 同一 processing_id 始终写到同一对象键，重试覆盖而不产生重复
func (s *Service) uploadObject(ctx context.Context, rec *model.RagUploadedFile, data []byte, contentType string) {
	key := BuildUploadKey(rec.TenantID, rec.ProcessingID, rec.OriginalFilename)
	if contentType == "" {
		contentType = contentTypeForExt(rec.FileType)
	}

	bucket := s.cfg.Storage.UploadsBucket
	if err := s.store.Save(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		log.Printf("upload %s: failed to write object: %v", rec.ProcessingID, err)
		if uerr := s.files.UpdateStatus(rec.TenantID, rec.ProcessingID, model.StatusFailed,
			"upload failed: "+err.Error(), nil); uerr != nil {
			log.Printf("upload %s: failed to record failure status: %v", rec.ProcessingID, uerr)
		}
		return
	}

	if err := s.files.SetUploadPath(rec.TenantID, rec.ProcessingID, key); err != nil {
		log.Printf("upload %s: failed to record upload path: %v", rec.ProcessingID, err)
	}

	if s.objectWritten != nil {
		s.objectWritten(bucket, key)
	}
}

// contentTypeForExt 按扩展名返回内容类型
func contentTypeForExt(ext string) string {
	switch ext {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "csv":
		return "text/csv"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
