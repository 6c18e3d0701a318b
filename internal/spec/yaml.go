package spec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	yaml "github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
)

// RequestSpec names the endpoint a directive file targets, relative to the
// base URL supplied at fetch time.
type RequestSpec struct {
	Path string
}

// NamedField is one entry of the extract block. Order follows the file.
type NamedField struct {
	Name  string
	Field FieldSpec
}

// ExtractSpec is a full directive file: an optional request block and an
// ordered set of named extractions.
type ExtractSpec struct {
	Request *RequestSpec
	Extract []NamedField
}

// ParseDocument decodes a YAML directive file. Mapping order is preserved
// for extract, where and select blocks; unknown keys fail with ErrSpec.
func ParseDocument(r io.Reader) (*ExtractSpec, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode YAML: %v", ErrSpec, err)
	}
	if doc.spec == nil {
		return nil, fmt.Errorf("%w: empty directive file", ErrSpec)
	}
	return doc.spec, nil
}

// ParseDocumentBytes decodes a YAML directive file from a byte slice.
func ParseDocumentBytes(data []byte) (*ExtractSpec, error) {
	return ParseDocument(bytes.NewReader(data))
}

// ParseFieldYAML decodes a single directive (string shorthand or structured
// mapping) from YAML.
func ParseFieldYAML(data []byte) (FieldSpec, error) {
	var holder yamlField
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&holder); err != nil {
		return FieldSpec{}, fmt.Errorf("%w: failed to decode YAML: %v", ErrSpec, err)
	}
	return holder.field, nil
}

type yamlDocument struct {
	spec *ExtractSpec
}

type yamlField struct {
	field FieldSpec
}

func (f *yamlField) UnmarshalYAML(node ast.Node) error {
	field, err := parseFieldNode(node)
	if err != nil {
		return err
	}
	f.field = field
	return nil
}

func (d *yamlDocument) UnmarshalYAML(node ast.Node) error {
	values, ok := mappingValues(node)
	if !ok {
		return fmt.Errorf("%w: directive file must be a mapping", ErrSpec)
	}

	spec := &ExtractSpec{}
	seenExtract := false

	for _, entry := range values {
		key, err := stringKey(entry.Key)
		if err != nil {
			return err
		}

		switch key {
		case "request":
			request, err := parseRequestNode(entry.Value)
			if err != nil {
				return err
			}
			spec.Request = request
		case "extract":
			extract, err := parseExtractNode(entry.Value)
			if err != nil {
				return err
			}
			spec.Extract = extract
			seenExtract = true
		default:
			return fmt.Errorf("%w: unrecognized key %q", ErrSpec, key)
		}
	}

	if !seenExtract {
		return fmt.Errorf("%w: missing required 'extract' block", ErrSpec)
	}

	d.spec = spec
	return nil
}

func parseRequestNode(node ast.Node) (*RequestSpec, error) {
	values, ok := mappingValues(node)
	if !ok {
		return nil, fmt.Errorf("%w: 'request' must be a mapping", ErrSpec)
	}

	request := &RequestSpec{}
	for _, entry := range values {
		key, err := stringKey(entry.Key)
		if err != nil {
			return nil, err
		}

		switch key {
		case "path":
			pathNode, ok := entry.Value.(*ast.StringNode)
			if !ok {
				return nil, fmt.Errorf("%w: request 'path' must be a string", ErrSpec)
			}
			request.Path = pathNode.Value
		default:
			return nil, fmt.Errorf("%w: request: unrecognized key %q", ErrSpec, key)
		}
	}

	if request.Path == "" {
		return nil, fmt.Errorf("%w: request: missing required 'path'", ErrSpec)
	}

	return request, nil
}

func parseExtractNode(node ast.Node) ([]NamedField, error) {
	values, ok := mappingValues(node)
	if !ok {
		return nil, fmt.Errorf("%w: 'extract' must be a mapping", ErrSpec)
	}

	fields := make([]NamedField, 0, len(values))
	for _, entry := range values {
		name, err := stringKey(entry.Key)
		if err != nil {
			return nil, err
		}

		field, err := parseFieldNode(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("extract %q: %w", name, err)
		}
		fields = append(fields, NamedField{Name: name, Field: field})
	}

	return fields, nil
}

// parseFieldNode normalizes a directive node: a scalar string is path
// shorthand, a mapping is the structured form.
func parseFieldNode(node ast.Node) (FieldSpec, error) {
	if str, ok := node.(*ast.StringNode); ok {
		return FieldSpec{Path: str.Value}, nil
	}

	values, ok := mappingValues(node)
	if !ok {
		return FieldSpec{}, fmt.Errorf("%w: directive must be a path string or mapping", ErrSpec)
	}

	var fs FieldSpec
	seenPath := false

	for _, entry := range values {
		key, err := stringKey(entry.Key)
		if err != nil {
			return FieldSpec{}, err
		}

		switch key {
		case "path":
			pathNode, ok := entry.Value.(*ast.StringNode)
			if !ok {
				return FieldSpec{}, fmt.Errorf("%w: 'path' must be a string", ErrSpec)
			}
			fs.Path = pathNode.Value
			seenPath = true
		case "where":
			where, err := parseWhereNode(entry.Value)
			if err != nil {
				return FieldSpec{}, err
			}
			fs.Where = where
		case "select":
			selections, err := parseSelectNode(entry.Value)
			if err != nil {
				return FieldSpec{}, err
			}
			fs.Select = selections
		case "collect":
			mode, err := parseCollectNode(entry.Value)
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

func parseWhereNode(node ast.Node) ([]Condition, error) {
	values, ok := mappingValues(node)
	if !ok {
		return nil, fmt.Errorf("%w: 'where' must be a mapping", ErrSpec)
	}

	conditions := make([]Condition, 0, len(values))
	for _, entry := range values {
		field, err := stringKey(entry.Key)
		if err != nil {
			return nil, err
		}

		cond, err := parseConditionNode(field, entry.Value)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	return conditions, nil
}

// parseConditionNode builds a condition from a where entry. A mapping is
// the comparator form (op plus optional value); any scalar or sequence is
// an equality literal.
func parseConditionNode(field string, node ast.Node) (Condition, error) {
	values, ok := mappingValues(node)
	if !ok {
		literal, err := nodeToValue(node)
		if err != nil {
			return Condition{}, fmt.Errorf("%w: condition %q: %v", ErrSpec, field, err)
		}
		return Condition{Field: field, Operation: "=", Value: literal}, nil
	}

	cond := Condition{Field: field}
	for _, entry := range values {
		key, err := stringKey(entry.Key)
		if err != nil {
			return Condition{}, err
		}

		switch key {
		case "op":
			opNode, ok := entry.Value.(*ast.StringNode)
			if !ok {
				return Condition{}, fmt.Errorf("%w: condition %q: 'op' must be a string", ErrSpec, field)
			}
			cond.Operation = opNode.Value
		case "value":
			literal, err := nodeToValue(entry.Value)
			if err != nil {
				return Condition{}, fmt.Errorf("%w: condition %q: %v", ErrSpec, field, err)
			}
			cond.Value = literal
		default:
			return Condition{}, fmt.Errorf("%w: condition %q: unrecognized key %q", ErrSpec, field, key)
		}
	}

	if cond.Operation == "" {
		return Condition{}, fmt.Errorf("%w: condition %q: comparator mapping requires 'op'", ErrSpec, field)
	}

	return cond, nil
}

func parseSelectNode(node ast.Node) ([]Selection, error) {
	values, ok := mappingValues(node)
	if !ok {
		return nil, fmt.Errorf("%w: 'select' must be a mapping", ErrSpec)
	}

	selections := make([]Selection, 0, len(values))
	for _, entry := range values {
		key, err := stringKey(entry.Key)
		if err != nil {
			return nil, err
		}

		nested, err := parseFieldNode(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("select %q: %w", key, err)
		}
		selections = append(selections, Selection{Key: key, Spec: &nested})
	}

	return selections, nil
}

func parseCollectNode(node ast.Node) (CollectMode, error) {
	switch current := node.(type) {
	case *ast.BoolNode:
		return ParseCollectMode(current.Value)
	case *ast.StringNode:
		return ParseCollectMode(current.Value)
	default:
		return CollectFlat, fmt.Errorf("%w: 'collect' must be a string or boolean", ErrSpec)
	}
}

// mappingValues flattens a mapping node's entries. goccy represents a
// single-entry block mapping as a bare MappingValueNode.
func mappingValues(node ast.Node) ([]*ast.MappingValueNode, bool) {
	switch current := node.(type) {
	case *ast.MappingNode:
		return current.Values, true
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{current}, true
	default:
		return nil, false
	}
}

func stringKey(node ast.Node) (string, error) {
	key, ok := node.(*ast.StringNode)
	if !ok {
		return "", fmt.Errorf("%w: mapping key must be a string", ErrSpec)
	}
	return key.Value, nil
}

// nodeToValue extracts literal values from AST nodes.
// Integer node values are normalized to int64, floats are always float64.
func nodeToValue(node ast.Node) (any, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		if n.Value == nil {
			return nil, errors.New("integer node has nil value")
		}
		if v, ok := n.Value.(int64); ok {
			return v, nil
		}
		if v, ok := n.Value.(uint64); ok {
			return int64(v), nil
		}
		return nil, fmt.Errorf("unexpected integer node value type: %T", n.Value)
	case *ast.FloatNode:
		return n.Value, nil
	case *ast.StringNode:
		return n.Value, nil
	case *ast.BoolNode:
		return n.Value, nil
	case *ast.NullNode:
		return nil, nil
	case *ast.SequenceNode:
		var result []any
		for i, item := range n.Values {
			val, err := nodeToValue(item)
			if err != nil {
				return nil, fmt.Errorf("invalid value at index %d: %w", i, err)
			}
			result = append(result, val)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported node type: %T", node)
	}
}
