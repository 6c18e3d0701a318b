// Package fieldpath compiles and resolves the extraction DSL's path
// expressions: dot-separated field names with `[*]` wildcard markers, e.g.
// "$.data.items[*].name". The optional leading `$.` root marker is stripped.
//
// Resolution never fails on absent data. A field segment applied to a
// non-object or a missing key resolves that branch to the missing sentinel;
// a wildcard applied to a non-array ends the branch with no matches. Only
// malformed syntax is an error, raised at compile time.
package fieldpath

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/alpeshvas/siphon/internal/document"
)

// ErrSyntax indicates a malformed path expression.
var ErrSyntax = errors.New("fieldpath: syntax error")

const wildcardMarker = "[*]"

type segKind uint8

const (
	segField segKind = iota
	segWildcard
)

type segment struct {
	kind segKind
	name string // field name for segField
}

// Path is a compiled path expression.
type Path struct {
	expr      string
	segs      []segment
	wildcards int
}

// Compile parses a path expression. "$" and "" compile to the root path,
// which resolves to the document itself.
func Compile(expr string) (Path, error) {
	rest := expr
	if rest == "$" {
		rest = ""
	} else if after, ok := strings.CutPrefix(rest, "$."); ok {
		if after == "" {
			return Path{}, fmt.Errorf("%w: %q has no segments after root marker", ErrSyntax, expr)
		}
		rest = after
	}

	p := Path{expr: expr}
	if rest == "" {
		return p, nil
	}

	for _, chunk := range strings.Split(rest, ".") {
		segs, wildcards, err := compileChunk(chunk)
		if err != nil {
			return Path{}, fmt.Errorf("%w: %q: %v", ErrSyntax, expr, err)
		}
		p.segs = append(p.segs, segs...)
		p.wildcards += wildcards
	}

	return p, nil
}

// compileChunk parses one dot-separated chunk: a field name, optionally
// followed by wildcard markers ("items", "[*]", "items[*][*]").
func compileChunk(chunk string) ([]segment, int, error) {
	if chunk == "" {
		return nil, 0, errors.New("empty segment")
	}

	name, markers, _ := strings.Cut(chunk, "[")
	if markers != "" {
		markers = "[" + markers
	}
	if strings.ContainsAny(name, "]*") {
		return nil, 0, fmt.Errorf("invalid field name %q", name)
	}
	if name == "" && markers == "" {
		return nil, 0, errors.New("empty segment")
	}

	var segs []segment
	if name != "" {
		segs = append(segs, segment{kind: segField, name: name})
	}

	wildcards := 0
	for markers != "" {
		after, ok := strings.CutPrefix(markers, wildcardMarker)
		if !ok {
			return nil, 0, fmt.Errorf("malformed wildcard marker in %q", chunk)
		}
		segs = append(segs, segment{kind: segWildcard})
		wildcards++
		markers = after
	}

	return segs, wildcards, nil
}

// String returns the original expression.
func (p Path) String() string { return p.expr }

// Wildcard reports whether the path contains at least one wildcard segment.
func (p Path) Wildcard() bool { return p.wildcards > 0 }

// Wildcards returns the number of wildcard segments.
func (p Path) Wildcards() int { return p.wildcards }

// Match is a single resolution result. Forks records the element index
// chosen at each wildcard, outermost first; it has one entry per wildcard
// in the path.
type Match struct {
	Value document.Value
	Forks []int
}

// Resolve walks the document and returns a lazy sequence of matches in
// document order (outer array elements before inner). A wildcard-free path
// yields exactly one match, possibly carrying the missing sentinel.
func (p Path) Resolve(doc document.Value) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		p.walk(doc, 0, nil, yield)
	}
}

func (p Path) walk(v document.Value, segIdx int, forks []int, yield func(Match) bool) bool {
	if segIdx == len(p.segs) {
		return yield(Match{Value: v, Forks: slices.Clone(forks)})
	}

	seg := p.segs[segIdx]
	if seg.kind == segField {
		return p.walk(v.Field(seg.name), segIdx+1, forks, yield)
	}

	// Wildcard only has meaning on arrays; anywhere else the branch
	// contributes nothing.
	if v.Kind() != document.KindArray {
		return true
	}
	for i, elem := range v.Elements() {
		if !p.walk(elem, segIdx+1, append(forks, i), yield) {
			return false
		}
	}
	return true
}

// First resolves the path and returns the first match, or the missing
// sentinel when the path produces none.
func (p Path) First(doc document.Value) document.Value {
	for m := range p.Resolve(doc) {
		return m.Value
	}
	return document.Missing()
}
