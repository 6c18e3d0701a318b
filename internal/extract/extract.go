// Package extract orchestrates the extraction pipeline: normalize the
// directive, resolve its path, filter candidates with the where clause,
// project survivors with the select clause, and assemble the result per the
// collect mode. It is pure: no I/O, and the input document is never
// mutated.
package extract

import (
	"fmt"

	"github.com/alpeshvas/siphon/internal/document"
	"github.com/alpeshvas/siphon/internal/fieldpath"
	"github.com/alpeshvas/siphon/internal/predicate"
	"github.com/alpeshvas/siphon/internal/spec"
)

// Process normalizes a raw directive (path string, structured mapping or
// canonical FieldSpec) and evaluates it against the document.
func Process(raw any, doc document.Value) (document.Value, error) {
	fs, err := spec.Parse(raw)
	if err != nil {
		return document.Missing(), err
	}
	return Evaluate(fs, doc)
}

// ProcessDocument evaluates every named directive of an extract spec,
// producing an object whose member order follows the spec.
func ProcessDocument(es *spec.ExtractSpec, doc document.Value) (document.Value, error) {
	if es == nil {
		return document.Missing(), fmt.Errorf("%w: nil extract spec", spec.ErrSpec)
	}

	members := make([]document.Member, 0, len(es.Extract))
	for _, named := range es.Extract {
		value, err := Evaluate(named.Field, doc)
		if err != nil {
			return document.Missing(), fmt.Errorf("extract %q: %w", named.Name, err)
		}
		if value.IsMissing() {
			value = document.Null()
		}
		members = append(members, document.Member{Key: named.Name, Value: value})
	}

	return document.Object(members...), nil
}

type candidate struct {
	value document.Value
	forks []int
}

// Evaluate runs a canonical directive against a document.
//
// A wildcard-free path yields the single resolved value directly: the
// missing sentinel when the path does not apply or the candidate was
// filtered out. A wildcard path yields a sequence shaped by the collect
// mode.
func Evaluate(fs spec.FieldSpec, doc document.Value) (document.Value, error) {
	path, err := fieldpath.Compile(fs.Path)
	if err != nil {
		return document.Missing(), err
	}

	var kept []candidate
	for match := range path.Resolve(doc) {
		ok, err := matchesWhere(match.Value, fs.Where)
		if err != nil {
			return document.Missing(), err
		}
		if !ok {
			continue
		}

		projected, err := project(match.Value, fs.Select)
		if err != nil {
			return document.Missing(), err
		}
		kept = append(kept, candidate{value: projected, forks: match.Forks})

		if fs.Collect == spec.CollectFirst {
			break
		}
	}

	return assemble(path, fs.Collect, kept), nil
}

// matchesWhere applies a where clause to a candidate. The clause is a
// conjunction; an empty clause matches everything. Condition fields are
// dot paths resolved relative to the candidate, and a missing field is
// not-equal to anything.
func matchesWhere(item document.Value, where []spec.Condition) (bool, error) {
	for _, cond := range where {
		operation := cond.Operation
		if operation == "" {
			operation = string(predicate.OpEquals)
		}
		op, err := predicate.ParseOperator(operation)
		if err != nil {
			return false, err
		}

		fieldPath, err := fieldpath.Compile(cond.Field)
		if err != nil {
			return false, err
		}
		if fieldPath.Wildcard() {
			return false, fmt.Errorf("%w: condition %q: wildcard not allowed in condition fields", spec.ErrSpec, cond.Field)
		}

		ok, err := predicate.Evaluate(predicate.Expr{Op: op, Value: cond.Value}, fieldPath.First(item))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// project applies a select clause to a surviving candidate. Every entry is
// itself a directive evaluated with the candidate as the document, so plain
// relative paths and nested structured specs share one code path. Absent
// sources project as null; output keys keep declaration order. Without a
// select clause the candidate passes through unchanged.
func project(item document.Value, selections []spec.Selection) (document.Value, error) {
	if len(selections) == 0 || item.IsMissing() {
		return item, nil
	}

	members := make([]document.Member, 0, len(selections))
	for _, sel := range selections {
		out, err := Evaluate(*sel.Spec, item)
		if err != nil {
			return document.Missing(), fmt.Errorf("select %q: %w", sel.Key, err)
		}
		if out.IsMissing() {
			out = document.Null()
		}
		members = append(members, document.Member{Key: sel.Key, Value: out})
	}

	return document.Object(members...), nil
}

func assemble(path fieldpath.Path, mode spec.CollectMode, kept []candidate) document.Value {
	if !path.Wildcard() {
		if len(kept) == 0 {
			return document.Missing()
		}
		return kept[0].value
	}

	switch mode {
	case spec.CollectFirst:
		if len(kept) == 0 {
			return document.Missing()
		}
		return kept[0].value
	case spec.CollectNested:
		return nest(kept, 0, path.Wildcards())
	default:
		values := make([]document.Value, len(kept))
		for i, c := range kept {
			values[i] = c.value
		}
		return document.ArrayOf(values)
	}
}

// nest groups surviving candidates by wildcard fork index, one array level
// per wildcard. Fork points whose subtree produced no survivors contribute
// no group.
func nest(kept []candidate, level, wildcards int) document.Value {
	if level == wildcards-1 {
		values := make([]document.Value, len(kept))
		for i, c := range kept {
			values[i] = c.value
		}
		return document.ArrayOf(values)
	}

	var groups []document.Value
	for i := 0; i < len(kept); {
		j := i
		fork := kept[i].forks[level]
		for j < len(kept) && kept[j].forks[level] == fork {
			j++
		}
		groups = append(groups, nest(kept[i:j], level+1, wildcards))
		i = j
	}
	return document.ArrayOf(groups)
}
