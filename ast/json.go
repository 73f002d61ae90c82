package ast

import (
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"
)

// UnmarshalJSON decodes a rule node.
// A bare scalar or array where a node is expected becomes a constant, which
// is how literal helper arguments travel on the wire. function_call targets may be
// given as a dotted string or as attribute/name objects.
func (r *Rule) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*r = Rule{}
		return nil
	}

	if trimmed[0] != '{' {
		var literal any
		if err := json.Unmarshal(data, &literal); err != nil {
			return fmt.Errorf("cannot unmarshal rule literal: %w", err)
		}
		*r = Rule{Type: TypeConstant, Value: NormalizeNumber(literal)}
		return nil
	}

	type ruleAlias Rule
	aux := struct {
		*ruleAlias
		Function json.RawMessage `json:"function,omitempty"`
		Target   json.RawMessage `json:"target,omitempty"`
	}{ruleAlias: (*ruleAlias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := aux.Target
	if len(raw) == 0 {
		raw = aux.Function
	}
	if len(raw) > 0 {
		target, err := decodeTarget(raw)
		if err != nil {
			return err
		}
		r.Target = target
	}
	r.Value = NormalizeNumber(r.Value)
	return nil
}

// MarshalJSON always emits the value of a constant, including false and 0.
func (r *Rule) MarshalJSON() ([]byte, error) {
	if r.Type == TypeConstant {
		return json.Marshal(struct {
			Type  Type `json:"type"`
			Value any  `json:"value"`
		}{r.Type, r.Value})
	}
	type ruleAlias Rule
	return json.Marshal((*ruleAlias)(r))
}

// decodeTarget flattens a function_call target into a dotted path.
func decodeTarget(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var node struct {
		Type   string          `json:"type"`
		Name   string          `json:"name"`
		Attr   string          `json:"attr"`
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(raw, &node); err != nil {
		return "", fmt.Errorf("cannot unmarshal function_call target: %w", err)
	}

	switch node.Type {
	case "name":
		return node.Name, nil
	case "attribute":
		if len(node.Object) == 0 {
			return node.Attr, nil
		}
		parent, err := decodeTarget(node.Object)
		if err != nil {
			return "", err
		}
		if parent == "" {
			return node.Attr, nil
		}
		return parent + "." + node.Attr, nil
	default:
		return "", fmt.Errorf("unsupported function_call target type %q", node.Type)
	}
}

// NormalizeNumber turns integral float64 values, as produced by JSON
// decoding, into int so rule arithmetic stays integral. Lists are
// normalized element by element.
func NormalizeNumber(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x <= math.MaxInt64 {
			return int(x)
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = NormalizeNumber(e)
		}
		return out
	default:
		return v
	}
}
