package llm

import (
	"fmt"
	"math"
	"slices"

	"modelruntime/schema"
)

// ValidateParameters checks raw model parameters against the declared rules
// and returns the filtered, alias-rewritten map sent to the provider.
//
// Rules are applied in schema order. A required parameter missing both a
// value and a default fails; an optional missing parameter is omitted from
// the output. Parameters not covered by any rule are dropped.
func ValidateParameters(rules []schema.ParameterRule, params map[string]any) (map[string]any, error) {
	filtered := make(map[string]any, len(rules))

	for _, rule := range rules {
		value, present := params[rule.Name]
		if !present || value == nil {
			if !rule.Required {
				continue
			}
			if rule.Default == nil {
				return nil, &ValidationError{Parameter: rule.Name, Message: "is required"}
			}
			filtered[rule.Name] = rule.Default
			continue
		}

		if err := checkValue(rule, value); err != nil {
			return nil, err
		}

		name := rule.Name
		if rule.Alias != "" && rule.Alias != rule.Name {
			name = rule.Alias
		}
		filtered[name] = value
	}

	return filtered, nil
}

func checkValue(rule schema.ParameterRule, value any) error {
	switch rule.Type {
	case schema.ParameterTypeInt:
		iv, ok := intValue(value)
		if !ok {
			return &ValidationError{Parameter: rule.Name, Message: "should be int"}
		}
		return checkRange(rule, float64(iv))

	case schema.ParameterTypeFloat:
		fv, ok := floatValue(value)
		if !ok {
			return &ValidationError{Parameter: rule.Name, Message: "should be float"}
		}
		if rule.Precision != nil {
			if err := checkPrecision(rule, fv, *rule.Precision); err != nil {
				return err
			}
		}
		return checkRange(rule, fv)

	case schema.ParameterTypeBoolean:
		if _, ok := value.(bool); !ok {
			return &ValidationError{Parameter: rule.Name, Message: "should be bool"}
		}
		return nil

	case schema.ParameterTypeString:
		s, ok := value.(string)
		if !ok {
			return &ValidationError{Parameter: rule.Name, Message: "should be string"}
		}
		if len(rule.Options) > 0 && !slices.Contains(rule.Options, s) {
			return &ValidationError{
				Parameter: rule.Name,
				Message:   fmt.Sprintf("should be one of %v", rule.Options),
			}
		}
		return nil

	default:
		// Unrecognized rule types never occur with schemas that passed
		// registry loading; reaching here is a configuration error.
		return fmt.Errorf("llm: parameter %s has unsupported type %q", rule.Name, rule.Type)
	}
}

func checkRange(rule schema.ParameterRule, v float64) error {
	if rule.Min != nil && v < *rule.Min {
		return &ValidationError{
			Parameter: rule.Name,
			Message:   fmt.Sprintf("should be greater than or equal to %v", *rule.Min),
		}
	}
	if rule.Max != nil && v > *rule.Max {
		return &ValidationError{
			Parameter: rule.Name,
			Message:   fmt.Sprintf("should be less than or equal to %v", *rule.Max),
		}
	}
	return nil
}

func checkPrecision(rule schema.ParameterRule, v float64, places int) error {
	if places == 0 {
		if v != math.Trunc(v) {
			return &ValidationError{Parameter: rule.Name, Message: "should be int"}
		}
		return nil
	}
	if v != roundTo(v, places) {
		return &ValidationError{
			Parameter: rule.Name,
			Message:   fmt.Sprintf("should be round to %d decimal places", places),
		}
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// intValue accepts Go integer kinds plus integral floats, which is what a
// JSON-decoded parameter map carries for whole numbers.
func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float32:
		if float64(n) == math.Trunc(float64(n)) {
			return int64(n), true
		}
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

// floatValue accepts integer or float values, mirroring the int-or-float
// contract for float-typed rules.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if iv, ok := intValue(v); ok {
		return float64(iv), true
	}
	return 0, false
}
