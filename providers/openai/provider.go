// Package openai is an OpenAI-compatible chat completion and embedding
// backend for the invocation runtime. It also serves vendors that clone the
// OpenAI wire format; point WithBaseURL at their endpoint.
package openai

import (
	"errors"
	"log/slog"
	"net/http"

	"modelruntime/internal/transport"
	"modelruntime/llm"
	"modelruntime/schema"
)

const (
	defaultBaseURL   = "https://api.openai.com"
	chatPath         = "/v1/chat/completions"
	embeddingsPath   = "/v1/embeddings"
	credentialAPIKey = "api_key"
)

type Provider struct {
	name   string
	apiKey string

	tr    *transport.Client
	usage llm.UsageCalculator
}

type Option func(*Provider) error

func New(apiKey string, registry *schema.Registry, opts ...Option) (*Provider, error) {
	tr, err := transport.New(defaultBaseURL, nil)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		name:   "openai",
		apiKey: apiKey,
		tr:     tr,
		usage:  llm.UsageCalculator{Registry: registry},
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.tr == nil {
		return nil, errors.New("openai: nil transport")
	}
	if p.tr.Logger == nil {
		p.tr.Logger = slog.Default()
	}
	return p, nil
}

// WithName overrides the provider name reported in normalized errors, for
// OpenAI-compatible vendors.
func WithName(name string) Option {
	return func(p *Provider) error {
		p.name = name
		return nil
	}
}

func WithBaseURL(baseURL string) Option {
	return func(p *Provider) error {
		tr, err := transport.New(baseURL, p.tr.HTTPClient)
		if err != nil {
			return err
		}
		tr.DefaultHeaders = p.tr.DefaultHeaders.Clone()
		tr.UserAgent = p.tr.UserAgent
		tr.Logger = p.tr.Logger
		tr.Retry = p.tr.Retry
		p.tr = tr
		return nil
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) error {
		p.tr.HTTPClient = c
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) error {
		if logger != nil {
			p.tr.Logger = logger
		}
		return nil
	}
}

func WithRetry(cfg transport.RetryConfig) Option {
	return func(p *Provider) error {
		p.tr.Retry = cfg
		return nil
	}
}

func WithDefaultHeader(key, value string) Option {
	return func(p *Provider) error {
		p.tr.DefaultHeaders.Add(key, value)
		return nil
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) headers(accept string, credentials map[string]string) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	if accept != "" {
		h.Set("Accept", accept)
	}
	if key := p.apiKeyFor(credentials); key != "" {
		h.Set("Authorization", "Bearer "+key)
	}
	return h
}

// apiKeyFor prefers per-invocation credentials over the constructor key.
func (p *Provider) apiKeyFor(credentials map[string]string) string {
	if key := credentials[credentialAPIKey]; key != "" {
		return key
	}
	return p.apiKey
}
