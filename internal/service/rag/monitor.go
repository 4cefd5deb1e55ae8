package rag

import (
	"context"
	"errors"
	"log"

	"github.com/formlead/formlead/internal/model"
)

// SweepResult 一次监控扫描的统计
type SweepResult struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Errors    int `json:"errors"`
}

// Sweep 阶段5：长时操作监控扫描
// 由外部调度器定期触发。单条记录的轮询失败不中断对其余记录的扫描，
// 只要扫描本身走完，整体就算成功
func (s *Service) Sweep(ctx context.Context) (*SweepResult, error) {
	if s.ragData == nil {
		return nil, errors.New("rag data client not configured")
	}

	records, err := s.files.ListByStatus(model.StatusImporting)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, rec := range records {
		result.Checked++

		if rec.VertexAIOperationName == "" {
			log.Printf("monitor %s: importing record has no operation handle", rec.ProcessingID)
			result.Errors++
			continue
		}

		status, err := s.ragData.GetOperation(ctx, rec.VertexAIOperationName)
		if err != nil {
			log.Printf("monitor %s: failed to poll operation %s: %v", rec.ProcessingID, rec.VertexAIOperationName, err)
			result.Errors++
			continue
		}

		if !status.Done {
			continue
		}

		if status.Error != nil {
			if err := s.files.UpdateStatus(rec.TenantID, rec.ProcessingID, model.StatusFailed,
				status.Error.Error(), nil); err != nil {
				log.Printf("monitor %s: failed to record failure: %v", rec.ProcessingID, err)
				result.Errors++
				continue
			}
			result.Failed++
			continue
		}

		if err := s.files.UpdateStatus(rec.TenantID, rec.ProcessingID, model.StatusCompleted,
			"import completed", nil); err != nil {
			log.Printf("monitor %s: failed to record completion: %v", rec.ProcessingID, err)
			result.Errors++
			continue
		}
		result.Completed++
	}
	return result, nil
}
