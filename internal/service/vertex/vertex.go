package vertex

import (
	"context"
	"fmt"
	"time"
)

// ImportRequest RAG 文件导入请求
type ImportRequest struct {
	CorpusName     string // projects/P/locations/R/ragCorpora/C
	GCSURI         string
	ChunkSize      int
	ChunkOverlap   int
	AdvancedParser bool // PDF 走布局感知解析
}

// OperationStatus 长时操作状态
type OperationStatus struct {
	Name  string
	Done  bool
	Error error // Done 且失败时非空
}

// RagFileInfo 语料库中的文件信息
type RagFileInfo struct {
	Name   string // projects/.../ragFiles/ID
	GCSURI string
}

// RagData RAG 数据面接口，覆盖导入、语料库管理与文件删除
type RagData interface {
	// ImportFiles 发起导入，返回长时操作名
	ImportFiles(ctx context.Context, req *ImportRequest) (string, error)
	// GetOperation 查询长时操作状态
	GetOperation(ctx context.Context, operationName string) (*OperationStatus, error)
	// CreateCorpus 创建语料库并等待完成，返回语料库资源名
	CreateCorpus(ctx context.Context, parent, displayName string) (string, error)
	// ListFiles 列出语料库中的文件
	ListFiles(ctx context.Context, corpusName string) ([]*RagFileInfo, error)
	// DeleteFile 删除语料库中的文件
	DeleteFile(ctx context.Context, ragFileName string) error
	// DeleteCorpus 删除语料库
	DeleteCorpus(ctx context.Context, corpusName string) error
}

// RetrievedContext 检索到的上下文片段
type RetrievedContext struct {
	Text     string
	Source   string
	Distance float64
}

// Retrieval RAG 检索面接口
type Retrieval interface {
	// RetrieveContexts 从语料库检索与查询相关的上下文
	RetrieveContexts(ctx context.Context, corpusName, query string, topK int) ([]*RetrievedContext, error)
}

// corpusCreateTimeout 语料库创建的有界等待时间
const corpusCreateTimeout = 300 * time.Second

// LocationParent 项目与区域的父资源名
func LocationParent(projectID, region string) string {
	return fmt.Sprintf("projects/%s/locations/%s", projectID, region)
}
