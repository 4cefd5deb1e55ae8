package rag

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// 对象键命名约定：{tenant_id}/uploads/{processing_id}_{original_filename}
// 预处理阶段按位置解析该键，分隔符结构不可变更

// BuildUploadKey 构造上传对象键
func BuildUploadKey(tenantID, processingID, filename string) string {
	return fmt.Sprintf("%s/uploads/%s_%s", tenantID, processingID, filename)
}

// BuildProcessedKey 构造预处理结果对象键
// 文件名取主干再加 .txt 后缀：data.csv → data.txt
func BuildProcessedKey(tenantID, processingID, filename string) string {
	stem := filename
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		stem = filename[:idx]
	}
	return fmt.Sprintf("%s/processed/%s_%s.txt", tenantID, processingID, stem)
}

// SanitizeFilename 去除客户端文件名中的路径成分
// 对象键以原始文件名结尾，不清洗会让 ../ 逃出本地存储根目录
func SanitizeFilename(filename string) string {
	if idx := strings.LastIndexAny(filename, `/\`); idx >= 0 {
		return filename[idx+1:]
	}
	return filename
}

// ParseUploadKey 解析上传对象键
// 键格式错误或 processing_id 不是 UUID 属于永久失败，调用方不应重试
func ParseUploadKey(objectKey string) (tenantID, processingID, filename string, err error) {
	parts := strings.SplitN(objectKey, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] != "uploads" {
		return "", "", "", fmt.Errorf("malformed object key: %s", objectKey)
	}
	tenantID = parts[0]

	rest := parts[2]
	idx := strings.Index(rest, "_")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", "", fmt.Errorf("malformed object name in key: %s", objectKey)
	}
	processingID = rest[:idx]
	filename = rest[idx+1:]

	if _, err := uuid.Parse(processingID); err != nil {
		return "", "", "", fmt.Errorf("invalid processing id in key %s: %w", objectKey, err)
	}
	return tenantID, processingID, filename, nil
}

// FileExt 文件扩展名（小写，不含点）
func FileExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
