// Package model 提供处理状态机单元测试
package model

import "testing"

func TestProcessingStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from ProcessingStatus
		to   ProcessingStatus
		want bool
	}{
		// 正向流水线
		{"pending_upload to preprocessing", StatusPendingUpload, StatusPreprocessing, true},
		{"preprocessing to pending_import", StatusPreprocessing, StatusPendingImport, true},
		{"pending_import to importing", StatusPendingImport, StatusImporting, true},
		{"importing to completed", StatusImporting, StatusCompleted, true},
		{"importing to failed", StatusImporting, StatusFailed, true},
		{"any stage to failed", StatusPreprocessing, StatusFailed, true},

		// 基础设施重试允许从 failed 重新进入
		{"failed back to preprocessing", StatusFailed, StatusPreprocessing, true},
		{"failed back to importing", StatusFailed, StatusImporting, true},

		// 禁止回退
		{"completed to preprocessing", StatusCompleted, StatusPreprocessing, false},
		{"importing to preprocessing", StatusImporting, StatusPreprocessing, false},
		{"pending_import to preprocessing", StatusPendingImport, StatusPreprocessing, false},
		{"completed to pending_upload", StatusCompleted, StatusPendingUpload, false},
		{"pending_import to pending_upload", StatusPendingImport, StatusPendingUpload, false},

		// 跳跃阶段
		{"pending_upload to importing", StatusPendingUpload, StatusImporting, false},
		{"preprocessing to completed", StatusPreprocessing, StatusCompleted, false},

		// 删除路径
		{"completed to deleting", StatusCompleted, StatusDeleting, true},
		{"pending_upload to deleting", StatusPendingUpload, StatusDeleting, true},
		{"deleting to deleted", StatusDeleting, StatusDeleted, true},
		{"deleted is terminal", StatusDeleted, StatusDeleting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestProcessingStatus_IsTerminal(t *testing.T) {
	terminal := []ProcessingStatus{StatusCompleted, StatusFailed, StatusDeleted}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	active := []ProcessingStatus{StatusPendingUpload, StatusPreprocessing, StatusPendingImport, StatusImporting, StatusDeleting}
	for _, s := range active {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestProcessingStatus_Valid(t *testing.T) {
	for _, s := range []ProcessingStatus{
		StatusPendingUpload, StatusPreprocessing, StatusPendingImport,
		StatusImporting, StatusCompleted, StatusFailed, StatusDeleting, StatusDeleted,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}

	if ProcessingStatus("bogus").Valid() {
		t.Error("bogus status should not be valid")
	}
}
