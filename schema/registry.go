package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrDuplicateModel indicates an attempt to register the same model twice.
var ErrDuplicateModel = errors.New("schema: model already registered")

// totalAmountPlaces is the quantization applied to computed price amounts.
const totalAmountPlaces = 7

// Registry is a model schema registry keyed by model id.
//
// Schemas are read-only once registered; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*ModelSchema
}

func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*ModelSchema)}
}

// Register adds a schema to the registry. Registering a model id twice is an
// error; predefined schemas loaded first win over later additions.
func (r *Registry) Register(sc *ModelSchema) error {
	if sc == nil || sc.Model == "" {
		return errors.New("schema: nil or unnamed model schema")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[sc.Model]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, sc.Model)
	}
	r.schemas[sc.Model] = sc
	return nil
}

// Lookup returns the schema for a model id, if one is registered.
func (r *Registry) Lookup(model string) (*ModelSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.schemas[model]
	return sc, ok
}

// Mode returns the model's operating mode, defaulting to chat when the model
// is unknown or its schema declares none.
func (r *Registry) Mode(model string) ModelMode {
	sc, ok := r.Lookup(model)
	if !ok || sc.Mode == "" {
		return ModeChat
	}
	return sc.Mode
}

// Price computes the price of a token count against the model's rate table.
// Models without a rate table price at zero in USD.
func (r *Registry) Price(model string, typ PriceType, tokens int) PriceInfo {
	sc, ok := r.Lookup(model)
	if !ok || sc.Pricing == nil {
		return PriceInfo{Currency: "USD"}
	}

	unitPrice := sc.Pricing.Input
	if typ == PriceTypeOutput {
		unitPrice = sc.Pricing.Output
	}

	total := unitPrice.
		Mul(sc.Pricing.Unit).
		Mul(decimal.NewFromInt(int64(tokens))).
		RoundBank(totalAmountPlaces)

	return PriceInfo{
		UnitPrice:   unitPrice,
		Unit:        sc.Pricing.Unit,
		TotalAmount: total,
		Currency:    sc.Pricing.Currency,
	}
}

// LoadFile registers the model schema described by one YAML document.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc schemaDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("schema: parse %s: %w", path, err)
	}

	sc, err := doc.toSchema()
	if err != nil {
		return fmt.Errorf("schema: %s: %w", path, err)
	}
	return r.Register(sc)
}

// LoadDir registers every .yaml/.yml schema document in a directory.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

type schemaDoc struct {
	Model          string    `yaml:"model"`
	Mode           string    `yaml:"mode"`
	ParameterRules []ruleDoc `yaml:"parameter_rules"`
	Pricing        *priceDoc `yaml:"pricing"`
}

type ruleDoc struct {
	Name      string   `yaml:"name"`
	Alias     string   `yaml:"alias"`
	Type      string   `yaml:"type"`
	Required  bool     `yaml:"required"`
	Default   any      `yaml:"default"`
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Precision *int     `yaml:"precision"`
	Options   []string `yaml:"options"`
}

type priceDoc struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Unit     string `yaml:"unit"`
	Currency string `yaml:"currency"`
}

func (d schemaDoc) toSchema() (*ModelSchema, error) {
	if d.Model == "" {
		return nil, errors.New("missing model id")
	}

	mode := ModelMode(d.Mode)
	switch mode {
	case "", ModeChat:
		mode = ModeChat
	case ModeCompletion:
	default:
		return nil, fmt.Errorf("unknown model mode %q", d.Mode)
	}

	rules := make([]ParameterRule, 0, len(d.ParameterRules))
	for _, rd := range d.ParameterRules {
		typ := ParameterType(rd.Type)
		switch typ {
		case ParameterTypeInt, ParameterTypeFloat, ParameterTypeBoolean, ParameterTypeString:
		default:
			return nil, fmt.Errorf("parameter %q: unknown type %q", rd.Name, rd.Type)
		}
		rules = append(rules, ParameterRule{
			Name:      rd.Name,
			Alias:     rd.Alias,
			Type:      typ,
			Required:  rd.Required,
			Default:   rd.Default,
			Min:       rd.Min,
			Max:       rd.Max,
			Precision: rd.Precision,
			Options:   rd.Options,
		})
	}

	sc := &ModelSchema{Model: d.Model, Mode: mode, ParameterRules: rules}

	if d.Pricing != nil {
		pc, err := d.Pricing.toConfig()
		if err != nil {
			return nil, err
		}
		sc.Pricing = pc
	}
	return sc, nil
}

func (d priceDoc) toConfig() (*PriceConfig, error) {
	input, err := decimal.NewFromString(d.Input)
	if err != nil {
		return nil, fmt.Errorf("pricing input %q: %w", d.Input, err)
	}
	output, err := decimal.NewFromString(d.Output)
	if err != nil {
		return nil, fmt.Errorf("pricing output %q: %w", d.Output, err)
	}
	unit, err := decimal.NewFromString(d.Unit)
	if err != nil {
		return nil, fmt.Errorf("pricing unit %q: %w", d.Unit, err)
	}
	currency := d.Currency
	if currency == "" {
		currency = "USD"
	}
	return &PriceConfig{Input: input, Output: output, Unit: unit, Currency: currency}, nil
}
