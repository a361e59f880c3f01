package schema

// ParameterType is the declared value type of a tunable generation parameter.
type ParameterType string

const (
	ParameterTypeInt     ParameterType = "int"
	ParameterTypeFloat   ParameterType = "float"
	ParameterTypeBoolean ParameterType = "boolean"
	ParameterTypeString  ParameterType = "string"
)

// ParameterRule declares one tunable generation parameter: its type, bounds,
// default, and optional wire-level rename. Rules are schema data, loaded once
// per model and never mutated afterwards.
type ParameterRule struct {
	Name string `yaml:"name" json:"name"`

	// Alias, when set, is the name the parameter is written under in the
	// filtered output sent to the provider.
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty"`

	Type     ParameterType `yaml:"type" json:"type"`
	Required bool          `yaml:"required,omitempty" json:"required,omitempty"`
	Default  any           `yaml:"default,omitempty" json:"default,omitempty"`

	// Min/Max are inclusive bounds for numeric types.
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`

	// Precision is the number of decimal places allowed for float values.
	// Zero means the value must be integral.
	Precision *int `yaml:"precision,omitempty" json:"precision,omitempty"`

	// Options restricts string values to a fixed set when non-empty.
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`
}
