package schema

import "github.com/shopspring/decimal"

// ModelMode is the operating mode of a language model.
type ModelMode string

const (
	ModeChat       ModelMode = "chat"
	ModeCompletion ModelMode = "completion"
)

// PriceType selects which token class a price lookup applies to.
type PriceType string

const (
	PriceTypeInput  PriceType = "input"
	PriceTypeOutput PriceType = "output"
)

// PriceConfig is a model's rate table entry. Unit prices are expressed per
// PriceUnit tokens (e.g. unit 0.000001 means the unit price is per million
// tokens).
type PriceConfig struct {
	Input    decimal.Decimal
	Output   decimal.Decimal
	Unit     decimal.Decimal
	Currency string
}

// PriceInfo is the result of a price lookup: the unit price applied, the
// price unit, and the total amount for the requested token count.
type PriceInfo struct {
	UnitPrice   decimal.Decimal
	Unit        decimal.Decimal
	TotalAmount decimal.Decimal
	Currency    string
}

// ModelSchema describes one model: its operating mode, its declared
// parameter rules, and its optional rate table. Immutable after load.
type ModelSchema struct {
	Model          string
	Mode           ModelMode
	ParameterRules []ParameterRule
	Pricing        *PriceConfig
}
