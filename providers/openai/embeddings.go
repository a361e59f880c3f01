package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"modelruntime/llm"
	"modelruntime/tokenizer"
)

// ErrInvalidCredentials reports that a credential validation ping was
// rejected by the vendor.
var ErrInvalidCredentials = errors.New("openai: invalid credentials")

func (p *Provider) RawEmbed(ctx context.Context, req *llm.EmbeddingRequest) (*llm.EmbeddingResult, error) {
	body := map[string]any{
		"model":           req.Model,
		"input":           req.Texts,
		"encoding_format": "float",
	}
	if req.User != "" {
		body["user"] = req.User
	}

	hdr := p.headers("application/json", req.Credentials)
	_, raw, err := p.tr.DoJSON(ctx, http.MethodPost, embeddingsPath, hdr, body)
	if err != nil {
		return nil, wrapError(err)
	}

	var resp embeddingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %s", errBadRequest, err)
	}

	result := &llm.EmbeddingResult{
		Model:      resp.Model,
		Embeddings: make([][]float64, 0, len(resp.Data)),
		Usage:      llm.EmptyEmbeddingUsage(),
	}
	if result.Model == "" {
		result.Model = req.Model
	}
	for _, d := range resp.Data {
		result.Embeddings = append(result.Embeddings, d.Embedding)
	}
	if resp.Usage != nil {
		result.Usage = p.usage.EmbeddingUsage(req.Model, resp.Usage.TotalTokens, req.StartedAt)
	}
	return result, nil
}

// CountEmbeddingTokens estimates embedding input tokens with the offline
// tokenizer.
func (p *Provider) CountEmbeddingTokens(_ context.Context, _ string, texts []string) (int, error) {
	total := 0
	for _, t := range texts {
		total += tokenizer.CountTokens(t)
	}
	return total, nil
}

// ValidateCredentials pings the embeddings endpoint with a one-word input
// and reports authorization rejections as ErrInvalidCredentials.
func (p *Provider) ValidateCredentials(ctx context.Context, model string, credentials map[string]string) error {
	_, err := p.RawEmbed(ctx, &llm.EmbeddingRequest{
		Model:       model,
		Credentials: credentials,
		Texts:       []string{"ping"},
		StartedAt:   time.Now(),
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, errAuthorization) {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}
	return err
}
