package vertex

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// RagDataClient Vertex AI RAG 数据面客户端
type RagDataClient struct {
	client *aiplatform.VertexRagDataClient
}

// NewRagDataClient 创建 RAG 数据面客户端，按区域指定端点
func NewRagDataClient(ctx context.Context, region string) (*RagDataClient, error) {
	client, err := aiplatform.NewVertexRagDataClient(ctx,
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", region)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vertex RAG data client: %w", err)
	}
	return &RagDataClient{client: client}, nil
}

// ImportFiles 发起导入，返回长时操作名，不等待完成
func (c *RagDataClient) ImportFiles(ctx context.Context, req *ImportRequest) (string, error) {
	importCfg := &aiplatformpb.ImportRagFilesConfig{
		ImportSource: &aiplatformpb.ImportRagFilesConfig_GcsSource{
			GcsSource: &aiplatformpb.GcsSource{
				Uris: []string{req.GCSURI},
			},
		},
		RagFileTransformationConfig: &aiplatformpb.RagFileTransformationConfig{
			RagFileChunkingConfig: &aiplatformpb.RagFileChunkingConfig{
				ChunkingConfig: &aiplatformpb.RagFileChunkingConfig_FixedLengthChunking_{
					FixedLengthChunking: &aiplatformpb.RagFileChunkingConfig_FixedLengthChunking{
						ChunkSize:    int32(req.ChunkSize),
						ChunkOverlap: int32(req.ChunkOverlap),
					},
				},
			},
		},
	}

	if req.AdvancedParser {
		importCfg.RagFileParsingConfig = &aiplatformpb.RagFileParsingConfig{
			Parser: &aiplatformpb.RagFileParsingConfig_AdvancedParser_{
				AdvancedParser: &aiplatformpb.RagFileParsingConfig_AdvancedParser{
					UseAdvancedPdfParsing: true,
				},
			},
		}
	}

	op, err := c.client.ImportRagFiles(ctx, &aiplatformpb.ImportRagFilesRequest{
		Parent:               req.CorpusName,
		ImportRagFilesConfig: importCfg,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start rag file import: %w", err)
	}
	return op.Name(), nil
}

// GetOperation 查询长时操作状态
func (c *RagDataClient) GetOperation(ctx context.Context, operationName string) (*OperationStatus, error) {
	op, err := c.client.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: operationName})
	if err != nil {
		return nil, fmt.Errorf("failed to get operation %s: %w", operationName, err)
	}

	status := &OperationStatus{
		Name: operationName,
		Done: op.GetDone(),
	}
	if e := op.GetError(); e != nil {
		status.Error = fmt.Errorf("operation failed: code=%d message=%s", e.GetCode(), e.GetMessage())
	}
	return status, nil
}

// CreateCorpus 创建语料库并等待完成，等待时间有界
func (c *RagDataClient) CreateCorpus(ctx context.Context, parent, displayName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, corpusCreateTimeout)
	defer cancel()

	op, err := c.client.CreateRagCorpus(ctx, &aiplatformpb.CreateRagCorpusRequest{
		Parent: parent,
		RagCorpus: &aiplatformpb.RagCorpus{
			DisplayName: displayName,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to start rag corpus creation: %w", err)
	}

	corpus, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create rag corpus: %w", err)
	}
	return corpus.GetName(), nil
}

// ListFiles 列出语料库中的文件
func (c *RagDataClient) ListFiles(ctx context.Context, corpusName string) ([]*RagFileInfo, error) {
	it := c.client.ListRagFiles(ctx, &aiplatformpb.ListRagFilesRequest{Parent: corpusName})

	var files []*RagFileInfo
	for {
		rf, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list rag files: %w", err)
		}

		info := &RagFileInfo{Name: rf.GetName()}
		if gcs := rf.GetGcsSource(); gcs != nil && len(gcs.GetUris()) > 0 {
			info.GCSURI = gcs.GetUris()[0]
		}
		files = append(files, info)
	}
	return files, nil
}

// DeleteFile 删除语料库中的文件
func (c *RagDataClient) DeleteFile(ctx context.Context, ragFileName string) error {
	op, err := c.client.DeleteRagFile(ctx, &aiplatformpb.DeleteRagFileRequest{Name: ragFileName})
	if err != nil {
		return fmt.Errorf("failed to delete rag file: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for rag file deletion: %w", err)
	}
	return nil
}

// DeleteCorpus 删除语料库
func (c *RagDataClient) DeleteCorpus(ctx context.Context, corpusName string) error {
	op, err := c.client.DeleteRagCorpus(ctx, &aiplatformpb.DeleteRagCorpusRequest{
		Name:  corpusName,
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete rag corpus: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for rag corpus deletion: %w", err)
	}
	return nil
}

// Close 关闭客户端
func (c *RagDataClient) Close() error {
	return c.client.Close()
}
