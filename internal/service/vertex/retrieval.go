package vertex

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"google.golang.org/api/option"
)

// RetrievalClient Vertex AI RAG 检索客户端
type RetrievalClient struct {
	client *aiplatform.VertexRagClient
	parent string
}

// NewRetrievalClient 创建检索客户端
func NewRetrievalClient(ctx context.Context, projectID, region string) (*RetrievalClient, error) {
	client, err := aiplatform.NewVertexRagClient(ctx,
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", region)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vertex RAG retrieval client: %w", err)
	}
	return &RetrievalClient{
		client: client,
		parent: LocationParent(projectID, region),
	}, nil
}

// RetrieveContexts 从语料库检索与查询相关的上下文
func (c *RetrievalClient) RetrieveContexts(ctx context.Context, corpusName, query string, topK int) ([]*RetrievedContext, error) {
	if topK <= 0 {
		topK = 10
	}

	resp, err := c.client.RetrieveContexts(ctx, &aiplatformpb.RetrieveContextsRequest{
		Parent: c.parent,
		DataSource: &aiplatformpb.RetrieveContextsRequest_VertexRagStore_{
			VertexRagStore: &aiplatformpb.RetrieveContextsRequest_VertexRagStore{
				RagResources: []*aiplatformpb.RetrieveContextsRequest_VertexRagStore_RagResource{
					{RagCorpus: corpusName},
				},
			},
		},
		Query: &aiplatformpb.RagQuery{
			Query:          &aiplatformpb.RagQuery_Text{Text: query},
			SimilarityTopK: int32(topK),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve contexts: %w", err)
	}

	contexts := resp.GetContexts().GetContexts()
	result := make([]*RetrievedContext, 0, len(contexts))
	for _, c := range contexts {
		result = append(result, &RetrievedContext{
			Text:     c.GetText(),
			Source:   c.GetSourceUri(),
			Distance: c.GetDistance(),
		})
	}
	return result, nil
}

// Close 关闭客户端
func (c *RetrievalClient) Close() error {
	return c.client.Close()
}
