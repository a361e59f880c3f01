package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"modelruntime/schema"
)

// Provider is the single vendor-specific primitive every backend supplies.
// Everything else in this package is vendor-independent scaffolding around
// it.
//
// RawInvoke and RawInvokeStream receive already-validated, alias-rewritten
// parameters; they must not see raw caller input. Backends without native
// streaming can satisfy RawInvokeStream with ResultStream.
type Provider interface {
	Name() string

	RawInvoke(ctx context.Context, req *InvokeRequest) (*Result, error)
	RawInvokeStream(ctx context.Context, req *InvokeRequest) (Stream, error)

	// CountTokens reports the prompt's token count. Backends whose vendor
	// offers no token-counting endpoint may estimate with an offline
	// tokenizer.
	CountTokens(ctx context.Context, model string, messages []schema.PromptMessage, tools []schema.Tool) (int, error)

	// ErrorTable declares which native errors map onto each shared kind.
	ErrorTable() ErrorTable
}

// InvokeRequest carries everything one invocation needs. One request per
// invocation; the orchestrator never shares state across invocations.
type InvokeRequest struct {
	Model       string
	Credentials map[string]string
	Messages    []schema.PromptMessage
	Parameters  map[string]any
	Tools       []schema.Tool
	Stop        []string
	User        string
	Callbacks   []Callback

	// StartedAt is stamped by the orchestrator when the invocation begins;
	// it anchors Usage.Latency. Providers read it, never set it.
	StartedAt time.Time
}

// Result is a complete invocation result.
type Result struct {
	// Model is the model id actually served, which may differ from the one
	// requested.
	Model             string
	Message           schema.PromptMessage
	Usage             Usage
	SystemFingerprint string
}

// Model orchestrates invocations of one provider backend: parameter
// validation, callback dispatch, the provider primitive, streaming
// aggregation, and error normalization, in that order.
//
// A Model holds no mutable invocation state; concurrent invocations each
// carry their own timestamps and callback lists.
type Model struct {
	provider    Provider
	registry    *schema.Registry
	usage       UsageCalculator
	logger      *slog.Logger
	diagnostics bool
}

type ModelOption func(*Model)

func WithLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDiagnostics appends a LoggingCallback to every invocation. This is an
// explicit construction-time switch, not an environment read.
func WithDiagnostics(enabled bool) ModelOption {
	return func(m *Model) { m.diagnostics = enabled }
}

func NewModel(provider Provider, registry *schema.Registry, opts ...ModelOption) *Model {
	m := &Model{
		provider: provider,
		registry: registry,
		usage:    UsageCalculator{Registry: registry},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Usage returns the calculator backends use to price their token counts.
func (m *Model) Usage() UsageCalculator { return m.usage }

// Mode returns the model's operating mode from its schema, defaulting to
// chat.
func (m *Model) Mode(model string) schema.ModelMode { return m.registry.Mode(model) }

// Invoke runs a non-streaming invocation and dispatches after-invoke
// callbacks synchronously with the complete result.
func (m *Model) Invoke(ctx context.Context, req *InvokeRequest) (*Result, error) {
	prepared, callbacks, ev, err := m.prepare(req, false)
	if err != nil {
		return nil, err
	}

	if err := m.fireBeforeInvoke(ctx, callbacks, ev); err != nil {
		return nil, err
	}

	result, err := m.provider.RawInvoke(ctx, prepared)
	if err != nil {
		if cbErr := m.fireInvokeError(ctx, callbacks, ev, err); cbErr != nil {
			return nil, cbErr
		}
		return nil, Normalize(m.provider.Name(), m.provider.ErrorTable(), err)
	}

	if err := m.fireAfterInvoke(ctx, callbacks, ev, result); err != nil {
		return nil, err
	}
	return result, nil
}

// InvokeStream runs a streaming invocation. The returned stream wraps the
// provider's chunk sequence lazily: nothing is pulled until the caller calls
// Recv, and after-invoke callbacks fire with the aggregated result once the
// sequence is exhausted. Abandoning the stream early requires calling Close,
// which releases the provider's connection.
func (m *Model) InvokeStream(ctx context.Context, req *InvokeRequest) (Stream, error) {
	prepared, callbacks, ev, err := m.prepare(req, true)
	if err != nil {
		return nil, err
	}

	if err := m.fireBeforeInvoke(ctx, callbacks, ev); err != nil {
		return nil, err
	}

	inner, err := m.provider.RawInvokeStream(ctx, prepared)
	if err != nil {
		if cbErr := m.fireInvokeError(ctx, callbacks, ev, err); cbErr != nil {
			return nil, cbErr
		}
		return nil, Normalize(m.provider.Name(), m.provider.ErrorTable(), err)
	}

	return &aggregatedStream{
		model:     m,
		ctx:       ctx,
		ev:        ev,
		callbacks: callbacks,
		inner:     inner,
		realModel: prepared.Model,
	}, nil
}

// CountTokens delegates to the provider primitive.
func (m *Model) CountTokens(ctx context.Context, model string, messages []schema.PromptMessage, tools []schema.Tool) (int, error) {
	return m.provider.CountTokens(ctx, model, messages, tools)
}

// prepare validates parameters, stamps the start timestamp, and assembles
// the callback list and context. Validation failures surface before any
// provider call.
func (m *Model) prepare(req *InvokeRequest, stream bool) (*InvokeRequest, []Callback, *CallbackContext, error) {
	params := req.Parameters
	if params == nil {
		params = map[string]any{}
	}

	// Unknown models pass parameters through unvalidated; the registry is
	// the single source of truth for which models carry rules.
	if sc, ok := m.registry.Lookup(req.Model); ok {
		filtered, err := ValidateParameters(sc.ParameterRules, params)
		if err != nil {
			return nil, nil, nil, err
		}
		params = filtered
	}

	prepared := *req
	prepared.Parameters = params
	prepared.StartedAt = time.Now()

	callbacks := append([]Callback(nil), req.Callbacks...)
	if m.diagnostics {
		callbacks = append(callbacks, NewLoggingCallback(m.logger))
	}

	ev := &CallbackContext{
		InvocationID: uuid.NewString(),
		Model:        req.Model,
		Credentials:  req.Credentials,
		Messages:     req.Messages,
		Parameters:   params,
		Tools:        req.Tools,
		Stop:         req.Stop,
		Stream:       stream,
		User:         req.User,
	}
	return &prepared, callbacks, ev, nil
}
