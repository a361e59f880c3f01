package llm

import (
	"context"
	"time"
)

// EmbeddingProvider is the vendor-specific primitive for text embedding
// backends.
type EmbeddingProvider interface {
	Name() string
	RawEmbed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResult, error)
	CountTokens(ctx context.Context, model string, texts []string) (int, error)
	ErrorTable() ErrorTable
}

// EmbeddingRequest carries one embedding invocation.
type EmbeddingRequest struct {
	Model       string
	Credentials map[string]string
	Texts       []string
	User        string

	// StartedAt is stamped by the orchestrator; it anchors usage latency.
	StartedAt time.Time
}

type EmbeddingResult struct {
	Model      string
	Embeddings [][]float64
	Usage      EmbeddingUsage
}

// EmbeddingModel orchestrates embedding invocations: it stamps the start
// timestamp and normalizes provider errors onto the shared taxonomy.
type EmbeddingModel struct {
	provider EmbeddingProvider
	usage    UsageCalculator
}

func NewEmbeddingModel(provider EmbeddingProvider, usage UsageCalculator) *EmbeddingModel {
	return &EmbeddingModel{provider: provider, usage: usage}
}

func (m *EmbeddingModel) Usage() UsageCalculator { return m.usage }

func (m *EmbeddingModel) Invoke(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResult, error) {
	prepared := *req
	prepared.StartedAt = time.Now()

	result, err := m.provider.RawEmbed(ctx, &prepared)
	if err != nil {
		return nil, Normalize(m.provider.Name(), m.provider.ErrorTable(), err)
	}
	return result, nil
}

func (m *EmbeddingModel) CountTokens(ctx context.Context, model string, texts []string) (int, error) {
	return m.provider.CountTokens(ctx, model, texts)
}
