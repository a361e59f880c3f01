package llm

import (
	"context"
	"errors"
	"io"
	"strings"

	"modelruntime/schema"
)

// Chunk is one fragment of a streamed invocation result.
type Chunk struct {
	// Model is the model id the provider actually served.
	Model string

	// SystemFingerprint is the provider-issued configuration fingerprint,
	// when one is present on this chunk.
	SystemFingerprint string

	Delta ChunkDelta
}

// ChunkDelta is the incremental payload of a chunk. Usage is present only on
// the final chunk, by provider convention.
type ChunkDelta struct {
	Index        int
	Message      schema.PromptMessage
	Usage        *Usage
	FinishReason string
}

// Stream is a finite, forward-only sequence of chunks.
//
// Recv returns io.EOF once the stream ends normally. The sequence is
// single-pass and non-restartable; chunks must be consumed in order. Close
// releases the underlying connection and must be safe to call before the
// stream is drained.
type Stream interface {
	Recv() (*Chunk, error)
	Close() error
}

var ErrStreamClosed = errors.New("llm: stream closed")

// aggregatedStream wraps a provider chunk stream. Each Recv dispatches
// new-chunk callbacks and folds the chunk into a running assistant message;
// on exhaustion it dispatches after-invoke callbacks with the synthesized
// complete result. Pull errors are normalized onto the shared taxonomy.
type aggregatedStream struct {
	model     *Model
	ctx       context.Context
	ev        *CallbackContext
	callbacks []Callback
	inner     Stream

	content     strings.Builder
	toolCalls   []schema.ToolCall
	realModel   string
	fingerprint string
	usage       *Usage

	done   bool
	closed bool
}

func (s *aggregatedStream) Recv() (*Chunk, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.done {
		return nil, io.EOF
	}

	chunk, err := s.inner.Recv()
	if err != nil {
		s.done = true
		if errors.Is(err, io.EOF) {
			if cbErr := s.model.fireAfterInvoke(s.ctx, s.callbacks, s.ev, s.finalResult()); cbErr != nil {
				return nil, cbErr
			}
			return nil, io.EOF
		}
		return nil, Normalize(s.model.provider.Name(), s.model.provider.ErrorTable(), err)
	}

	if cbErr := s.model.fireNewChunk(s.ctx, s.callbacks, s.ev, chunk); cbErr != nil {
		s.done = true
		return nil, cbErr
	}

	s.content.WriteString(chunk.Delta.Message.Content)
	if len(chunk.Delta.Message.ToolCalls) > 0 {
		s.toolCalls = append(s.toolCalls, chunk.Delta.Message.ToolCalls...)
	}
	if chunk.Model != "" {
		s.realModel = chunk.Model
	}
	if chunk.SystemFingerprint != "" {
		s.fingerprint = chunk.SystemFingerprint
	}
	if chunk.Delta.Usage != nil {
		s.usage = chunk.Delta.Usage
	}

	return chunk, nil
}

func (s *aggregatedStream) finalResult() *Result {
	res := &Result{
		Model: s.realModel,
		Message: schema.PromptMessage{
			Role:      schema.RoleAssistant,
			Content:   s.content.String(),
			ToolCalls: s.toolCalls,
		},
		Usage:             EmptyUsage(),
		SystemFingerprint: s.fingerprint,
	}
	if s.usage != nil {
		res.Usage = *s.usage
	}
	return res
}

func (s *aggregatedStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.inner.Close()
}

// resultStream spreads a complete result into a finite chunk stream, one
// rune per chunk, with tool calls and usage attached to the last chunk.
// Backends whose vendor API cannot stream use this to satisfy streamed
// invocations.
type resultStream struct {
	result *Result
	runes  []rune
	idx    int
	closed bool
}

// ResultStream wraps a complete result as a Stream.
func ResultStream(result *Result) Stream {
	return &resultStream{result: result, runes: []rune(result.Message.Content)}
}

func (s *resultStream) Recv() (*Chunk, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.idx >= len(s.runes) {
		return nil, io.EOF
	}

	last := s.idx == len(s.runes)-1
	delta := ChunkDelta{
		Index:   s.idx,
		Message: schema.PromptMessage{Role: schema.RoleAssistant, Content: string(s.runes[s.idx])},
	}
	if last {
		delta.Message.ToolCalls = s.result.Message.ToolCalls
		usage := s.result.Usage
		delta.Usage = &usage
	}
	s.idx++

	return &Chunk{
		Model:             s.result.Model,
		SystemFingerprint: s.result.SystemFingerprint,
		Delta:             delta,
	}, nil
}

func (s *resultStream) Close() error {
	s.closed = true
	return nil
}
