package llm

import (
	"time"

	"github.com/shopspring/decimal"

	"modelruntime/schema"
)

// Usage is the priced token accounting for one language model invocation.
//
// Derived, never mutated after construction. TotalTokens always equals
// PromptTokens + CompletionTokens, and TotalPrice always equals
// PromptPrice + CompletionPrice.
type Usage struct {
	PromptTokens        int
	PromptUnitPrice     decimal.Decimal
	PromptPriceUnit     decimal.Decimal
	PromptPrice         decimal.Decimal
	CompletionTokens    int
	CompletionUnitPrice decimal.Decimal
	CompletionPriceUnit decimal.Decimal
	CompletionPrice     decimal.Decimal
	TotalTokens         int
	TotalPrice          decimal.Decimal
	Currency            string

	// Latency is measured from the orchestrator's own start timestamp, not
	// the provider's.
	Latency time.Duration
}

// EmptyUsage returns a zero usage record in USD.
func EmptyUsage() Usage {
	return Usage{Currency: "USD"}
}

// EmbeddingUsage is the priced token accounting for one embedding invocation.
type EmbeddingUsage struct {
	Tokens      int
	TotalTokens int
	UnitPrice   decimal.Decimal
	PriceUnit   decimal.Decimal
	TotalPrice  decimal.Decimal
	Currency    string
	Latency     time.Duration
}

// EmptyEmbeddingUsage returns a zero embedding usage record in USD.
func EmptyEmbeddingUsage() EmbeddingUsage {
	return EmbeddingUsage{Currency: "USD"}
}

// UsageCalculator converts raw token counts into priced usage records using
// the registry's rate tables. It is a pure function of its inputs plus the
// rate table: no retries, no I/O.
type UsageCalculator struct {
	Registry *schema.Registry
}

// LLMUsage prices prompt and completion token counts independently and stamps
// latency relative to startedAt.
func (c UsageCalculator) LLMUsage(model string, promptTokens, completionTokens int, startedAt time.Time) Usage {
	promptPrice := c.Registry.Price(model, schema.PriceTypeInput, promptTokens)
	completionPrice := c.Registry.Price(model, schema.PriceTypeOutput, completionTokens)

	return Usage{
		PromptTokens:        promptTokens,
		PromptUnitPrice:     promptPrice.UnitPrice,
		PromptPriceUnit:     promptPrice.Unit,
		PromptPrice:         promptPrice.TotalAmount,
		CompletionTokens:    completionTokens,
		CompletionUnitPrice: completionPrice.UnitPrice,
		CompletionPriceUnit: completionPrice.Unit,
		CompletionPrice:     completionPrice.TotalAmount,
		TotalTokens:         promptTokens + completionTokens,
		TotalPrice:          promptPrice.TotalAmount.Add(completionPrice.TotalAmount),
		Currency:            promptPrice.Currency,
		Latency:             time.Since(startedAt),
	}
}

// EmbeddingUsage prices an embedding token count against the model's input
// rate.
func (c UsageCalculator) EmbeddingUsage(model string, tokens int, startedAt time.Time) EmbeddingUsage {
	price := c.Registry.Price(model, schema.PriceTypeInput, tokens)

	return EmbeddingUsage{
		Tokens:      tokens,
		TotalTokens: tokens,
		UnitPrice:   price.UnitPrice,
		PriceUnit:   price.Unit,
		TotalPrice:  price.TotalAmount,
		Currency:    price.Currency,
		Latency:     time.Since(startedAt),
	}
}
