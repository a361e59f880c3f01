package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"modelruntime/internal/transport"
	"modelruntime/llm"
	"modelruntime/schema"
)

var doneMarker = []byte("[DONE]")

// chatStream decodes SSE chat completion chunks into runtime chunks. It is
// single-pass; Close releases the HTTP connection whether or not the stream
// was drained.
type chatStream struct {
	provider  string
	model     string
	resp      *http.Response
	dec       *transport.SSEDecoder
	usage     llm.UsageCalculator
	startedAt time.Time

	idx    int
	done   bool
	closed bool
}

func newChatStream(p *Provider, req *llm.InvokeRequest, resp *http.Response) *chatStream {
	return &chatStream{
		provider:  p.name,
		model:     req.Model,
		resp:      resp,
		dec:       transport.NewSSEDecoder(resp.Body),
		usage:     p.usage,
		startedAt: req.StartedAt,
	}
}

func (s *chatStream) Recv() (*llm.Chunk, error) {
	if s.closed {
		return nil, llm.ErrStreamClosed
	}
	if s.done {
		return nil, io.EOF
	}

	for {
		data, err := s.dec.Next()
		if err != nil {
			s.done = true
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: %s", errConnection, err)
		}
		if bytes.Equal(data, doneMarker) {
			s.done = true
			return nil, io.EOF
		}

		var wc chatCompletionChunk
		if err := json.Unmarshal(data, &wc); err != nil {
			s.done = true
			return nil, fmt.Errorf("%w: decode chunk: %s", errBadRequest, err)
		}
		if len(wc.Choices) == 0 && wc.Usage == nil {
			continue
		}

		chunk := &llm.Chunk{
			Model:             wc.Model,
			SystemFingerprint: wc.SystemFingerprint,
			Delta: llm.ChunkDelta{
				Index:   s.idx,
				Message: schema.PromptMessage{Role: schema.RoleAssistant},
			},
		}
		if len(wc.Choices) > 0 {
			chunk.Delta.Message = messageFromWire(wc.Choices[0].Delta)
			if fr := wc.Choices[0].FinishReason; fr != nil {
				chunk.Delta.FinishReason = *fr
			}
		}
		if wc.Usage != nil {
			usage := s.usage.LLMUsage(s.model, wc.Usage.PromptTokens, wc.Usage.CompletionTokens, s.startedAt)
			chunk.Delta.Usage = &usage
		}

		s.idx++
		return chunk, nil
	}
}

func (s *chatStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Body.Close()
}
