// Package spec normalizes raw extraction directives into canonical field
// specs. A directive is either a bare path string or a structured form with
// the keys path, where, select and collect; anything else is rejected.
// Path syntax and comparator operators are validated lazily at evaluation
// time, keeping parsing total.
package spec

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSpec is the sentinel error for all malformed-spec failures.
var ErrSpec = errors.New("spec: invalid spec")

// CollectMode controls how matches produced by wildcard traversal are
// assembled into the final result.
type CollectMode uint8

const (
	// CollectFlat flattens all surviving matches into a single sequence
	// in document order. This is the default.
	CollectFlat CollectMode = iota
	// CollectNested preserves one sequence level per wildcard segment.
	CollectNested
	// CollectFirst yields only the first surviving match, or null.
	CollectFirst
)

func (m CollectMode) String() string {
	switch m {
	case CollectFlat:
		return "flat"
	case CollectNested:
		return "nested"
	case CollectFirst:
		return "first"
	default:
		return "unknown"
	}
}

// ParseCollectMode normalizes a collect directive. Booleans are accepted
// for compatibility with older directive files: true collects everything
// (flat), false keeps only the first match.
func ParseCollectMode(raw any) (CollectMode, error) {
	switch current := raw.(type) {
	case bool:
		if current {
			return CollectFlat, nil
		}
		return CollectFirst, nil
	case string:
		switch current {
		case "flat":
			return CollectFlat, nil
		case "nested":
			return CollectNested, nil
		case "first":
			return CollectFirst, nil
		default:
			return CollectFlat, fmt.Errorf("%w: unknown collect mode %q", ErrSpec, current)
		}
	default:
		return CollectFlat, fmt.Errorf("%w: collect must be a string or boolean, got %T", ErrSpec, raw)
	}
}

// Condition is one entry of a where clause: a field path relative to the
// candidate, a comparator token and a literal. All conditions of a clause
// must hold.
type Condition struct {
	Field     string
	Operation string
	Value     any
}

// Selection is one entry of a select projection: an output key and the
// nested spec producing its value. A plain relative path source is the
// degenerate nested spec with only a path.
type Selection struct {
	Key  string
	Spec *FieldSpec
}

// FieldSpec is the canonical form of a single extraction directive.
type FieldSpec struct {
	Path    string
	Where   []Condition
	Select  []Selection
	Collect CollectMode
}

// Parse normalizes a raw directive: a path string, a structured
// map[string]any, or an already canonical FieldSpec. Map-form where and
// select entries iterate in sorted key order; use the YAML form or build
// FieldSpec directly when declaration order matters.
func Parse(raw any) (FieldSpec, error) {
	switch current := raw.(type) {
	case string:
		return FieldSpec{Path: current}, nil
	case FieldSpec:
		return validateCanonical(current)
	case *FieldSpec:
		if current == nil {
			return FieldSpec{}, fmt.Errorf("%w: nil spec", ErrSpec)
		}
		return validateCanonical(*current)
	case map[string]any:
		return parseMap(current)
	default:
		return FieldSpec{}, fmt.Errorf("%w: spec must be a string or mapping, got %T", ErrSpec, raw)
	}
}

func validateCanonical(fs FieldSpec) (FieldSpec, error) {
	if fs.Path == "" {
		return FieldSpec{}, fmt.Errorf("%w: missing required field 'path'", ErrSpec)
	}
	return fs, nil
}

func parseMap(raw map[string]any) (FieldSpec, error) {
	var fs FieldSpec
	seenPath := false

	for _, key := range sortedKeys(raw) {
		value := raw[key]
		switch key {
		case "path":
			pathValue, ok := value.(string)
			if !ok {
				return FieldSpec{}, fmt.Errorf("%w: 'path' must be a string, got %T", ErrSpec, value)
			}
			fs.Path = pathValue
			seenPath = true
		case "where":
			where, err := parseWhereMap(value)
			if err != nil {
				return FieldSpec{}, err
			}
			fs.Where = where
		case "select":
			selections, err := parseSelectMap(value)
			if err != nil {
				return FieldSpec{}, err
			}
			fs.Select = selections
		case "collect":
			mode, err := ParseCollectMode(value)
			if err != nil {
				return FieldSpec{}, err
			}
			fs.Collect = mode
		default:
			return FieldSpec{}, fmt.Errorf("%w: unrecognized key %q", ErrSpec, key)
		}
	}

	if !seenPath || fs.Path == "" {
		return FieldSpec{}, fmt.Errorf("%w: missing required field 'path'", ErrSpec)
	}

	return fs, nil
}

func parseWhereMap(raw any) ([]Condition, error) {
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: 'where' must be a mapping, got %T", ErrSpec, raw)
	}

	conditions := make([]Condition, 0, len(entries))
	for _, field := range sortedKeys(entries) {
		cond, err := parseConditionValue(field, entries[field])
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

// parseConditionValue builds a condition from a where entry. A mapping with
// an "op" key is a comparator expression; any other value is an equality
// literal.
func parseConditionValue(field string, raw any) (Condition, error) {
	expr, ok := raw.(map[string]any)
	if !ok {
		return Condition{Field: field, Operation: "=", Value: raw}, nil
	}

	if _, ok := expr["op"]; !ok {
		return Condition{}, fmt.Errorf("%w: condition %q: comparator mapping requires 'op'", ErrSpec, field)
	}

	cond := Condition{Field: field}
	for key, value := range expr {
		switch key {
		case "op":
			opValue, ok := value.(string)
			if !ok {
				return Condition{}, fmt.Errorf("%w: condition %q: 'op' must be a string, got %T", ErrSpec, field, value)
			}
			cond.Operation = opValue
		case "value":
			cond.Value = value
		default:
			return Condition{}, fmt.Errorf("%w: condition %q: unrecognized key %q", ErrSpec, field, key)
		}
	}

	return cond, nil
}

func parseSelectMap(raw any) ([]Selection, error) {
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: 'select' must be a mapping, got %T", ErrSpec, raw)
	}

	selections := make([]Selection, 0, len(entries))
	for _, key := range sortedKeys(entries) {
		nested, err := Parse(entries[key])
		if err != nil {
			return nil, fmt.Errorf("select %q: %w", key, err)
		}
		selections = append(selections, Selection{Key: key, Spec: &nested})
	}
	return selections, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
