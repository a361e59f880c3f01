package llm

import (
	"context"
	"fmt"
	"log/slog"

	"modelruntime/schema"
)

// Callback observes the lifecycle of a model invocation.
//
// Hooks run synchronously, in registration order, on the invoking goroutine.
// A hook returning an error aborts dispatch only when the callback's
// RaiseError reports true; otherwise the failure is logged and dispatch
// continues with the next callback.
type Callback interface {
	OnBeforeInvoke(ctx context.Context, ev *CallbackContext) error
	OnNewChunk(ctx context.Context, ev *CallbackContext, chunk *Chunk) error
	OnAfterInvoke(ctx context.Context, ev *CallbackContext, result *Result) error
	OnInvokeError(ctx context.Context, ev *CallbackContext, invokeErr error) error

	// RaiseError reports whether this callback's own failures should
	// propagate to the caller instead of being swallowed and logged.
	RaiseError() bool
}

// CallbackContext is the invocation context handed to every hook.
type CallbackContext struct {
	InvocationID string
	Model        string
	Credentials  map[string]string
	Messages     []schema.PromptMessage
	Parameters   map[string]any
	Tools        []schema.Tool
	Stop         []string
	Stream       bool
	User         string
}

// NopCallback implements every hook as a no-op with RaiseError false.
// Embed it to observe a subset of lifecycle points.
type NopCallback struct{}

func (NopCallback) OnBeforeInvoke(context.Context, *CallbackContext) error { return nil }

func (NopCallback) OnNewChunk(context.Context, *CallbackContext, *Chunk) error { return nil }

func (NopCallback) OnAfterInvoke(context.Context, *CallbackContext, *Result) error { return nil }

func (NopCallback) OnInvokeError(context.Context, *CallbackContext, error) error { return nil }

func (NopCallback) RaiseError() bool { return false }

func (m *Model) fireBeforeInvoke(ctx context.Context, callbacks []Callback, ev *CallbackContext) error {
	for _, cb := range callbacks {
		if cb == nil {
			continue
		}
		if err := cb.OnBeforeInvoke(ctx, ev); err != nil {
			if cb.RaiseError() {
				return err
			}
			m.logCallbackFailure(ctx, cb, "on_before_invoke", err)
		}
	}
	return nil
}

func (m *Model) fireNewChunk(ctx context.Context, callbacks []Callback, ev *CallbackContext, chunk *Chunk) error {
	for _, cb := range callbacks {
		if cb == nil {
			continue
		}
		if err := cb.OnNewChunk(ctx, ev, chunk); err != nil {
			if cb.RaiseError() {
				return err
			}
			m.logCallbackFailure(ctx, cb, "on_new_chunk", err)
		}
	}
	return nil
}

func (m *Model) fireAfterInvoke(ctx context.Context, callbacks []Callback, ev *CallbackContext, result *Result) error {
	for _, cb := range callbacks {
		if cb == nil {
			continue
		}
		if err := cb.OnAfterInvoke(ctx, ev, result); err != nil {
			if cb.RaiseError() {
				return err
			}
			m.logCallbackFailure(ctx, cb, "on_after_invoke", err)
		}
	}
	return nil
}

func (m *Model) fireInvokeError(ctx context.Context, callbacks []Callback, ev *CallbackContext, invokeErr error) error {
	for _, cb := range callbacks {
		if cb == nil {
			continue
		}
		if err := cb.OnInvokeError(ctx, ev, invokeErr); err != nil {
			if cb.RaiseError() {
				return err
			}
			m.logCallbackFailure(ctx, cb, "on_invoke_error", err)
		}
	}
	return nil
}

func (m *Model) logCallbackFailure(ctx context.Context, cb Callback, hook string, err error) {
	m.logger.WarnContext(ctx, "llm callback failed",
		"callback", fmt.Sprintf("%T", cb),
		"hook", hook,
		"err", err,
	)
}

// LoggingCallback logs every lifecycle point through slog. The orchestrator
// appends one automatically when diagnostics are enabled.
type LoggingCallback struct {
	logger *slog.Logger
}

func NewLoggingCallback(logger *slog.Logger) *LoggingCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingCallback{logger: logger}
}

func (c *LoggingCallback) OnBeforeInvoke(ctx context.Context, ev *CallbackContext) error {
	c.logger.InfoContext(ctx, "llm invoke started",
		"invocation_id", ev.InvocationID,
		"model", ev.Model,
		"stream", ev.Stream,
		"user", ev.User,
		"parameters", ev.Parameters,
		"messages", len(ev.Messages),
		"tools", len(ev.Tools),
	)
	return nil
}

func (c *LoggingCallback) OnNewChunk(ctx context.Context, ev *CallbackContext, chunk *Chunk) error {
	c.logger.DebugContext(ctx, "llm chunk received",
		"invocation_id", ev.InvocationID,
		"model", chunk.Model,
		"index", chunk.Delta.Index,
		"delta", chunk.Delta.Message.Content,
	)
	return nil
}

func (c *LoggingCallback) OnAfterInvoke(ctx context.Context, ev *CallbackContext, result *Result) error {
	c.logger.InfoContext(ctx, "llm invoke finished",
		"invocation_id", ev.InvocationID,
		"model", result.Model,
		"prompt_tokens", result.Usage.PromptTokens,
		"completion_tokens", result.Usage.CompletionTokens,
		"total_price", result.Usage.TotalPrice,
		"currency", result.Usage.Currency,
		"latency", result.Usage.Latency,
		"fingerprint", result.SystemFingerprint,
	)
	return nil
}

func (c *LoggingCallback) OnInvokeError(ctx context.Context, ev *CallbackContext, invokeErr error) error {
	c.logger.ErrorContext(ctx, "llm invoke failed",
		"invocation_id", ev.InvocationID,
		"model", ev.Model,
		"err", invokeErr,
	)
	return nil
}

func (c *LoggingCallback) RaiseError() bool { return false }
