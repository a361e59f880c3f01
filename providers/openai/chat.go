package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"modelruntime/llm"
	"modelruntime/schema"
	"modelruntime/tokenizer"
)

func (p *Provider) RawInvoke(ctx context.Context, req *llm.InvokeRequest) (*llm.Result, error) {
	hdr := p.headers("application/json", req.Credentials)

	_, raw, err := p.tr.DoJSON(ctx, http.MethodPost, chatPath, hdr, chatBody(req, false))
	if err != nil {
		return nil, wrapError(err)
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %s", errBadRequest, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response carried no choices", errBadRequest)
	}

	result := &llm.Result{
		Model:             resp.Model,
		Message:           messageFromWire(resp.Choices[0].Message),
		Usage:             llm.EmptyUsage(),
		SystemFingerprint: resp.SystemFingerprint,
	}
	if result.Model == "" {
		result.Model = req.Model
	}
	if resp.Usage != nil {
		result.Usage = p.usage.LLMUsage(req.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, req.StartedAt)
	}
	return result, nil
}

func (p *Provider) RawInvokeStream(ctx context.Context, req *llm.InvokeRequest) (llm.Stream, error) {
	hdr := p.headers("text/event-stream", req.Credentials)

	resp, err := p.tr.DoStream(ctx, http.MethodPost, chatPath, hdr, chatBody(req, true))
	if err != nil {
		return nil, wrapError(err)
	}
	return newChatStream(p, req, resp), nil
}

// CountTokens estimates with the offline tokenizer; this vendor exposes no
// token-counting endpoint.
func (p *Provider) CountTokens(_ context.Context, _ string, messages []schema.PromptMessage, tools []schema.Tool) (int, error) {
	const tokensPerMessage = 4 // role, separators, per-message framing

	total := 0
	for _, m := range messages {
		total += tokensPerMessage
		total += tokenizer.CountTokens(m.Content)
		for _, c := range m.ToolCalls {
			total += tokenizer.CountTokens(c.Function.Name)
			total += tokenizer.CountTokens(c.Function.Arguments)
		}
	}
	for _, t := range tools {
		total += tokenizer.CountTokens(t.Function.Name)
		total += tokenizer.CountTokens(t.Function.Description)
		total += tokenizer.CountTokens(string(t.Function.Parameters))
	}
	return total, nil
}
