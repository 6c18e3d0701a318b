// Package predicate evaluates where-clause comparators against resolved
// document values. The operator set is fixed; anything else is rejected
// when the condition is first evaluated.
package predicate

import (
	"errors"
	"fmt"

	"github.com/alpeshvas/siphon/internal/document"
	"github.com/alpeshvas/siphon/internal/number"
)

var (
	ErrInvalidInput = errors.New("predicate: invalid input")
	ErrUnsupported  = errors.New("predicate: unsupported operator")
)

// Operator is a comparator token from the DSL's fixed set.
type Operator string

const (
	OpEquals         Operator = "="
	OpNotEquals      Operator = "!="
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
)

var supportedOperatorSet = map[Operator]struct{}{
	OpEquals:         {},
	OpNotEquals:      {},
	OpLessThan:       {},
	OpLessOrEqual:    {},
	OpGreaterThan:    {},
	OpGreaterOrEqual: {},
}

// ParseOperator validates a comparator token.
func ParseOperator(input string) (Operator, error) {
	op := Operator(input)
	if _, ok := supportedOperatorSet[op]; ok {
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, input)
}

// Expr is a single comparator expression: an operator and its literal.
type Expr struct {
	Op    Operator
	Value any
}

var orderingCompare = map[Operator]func(a, b float64) bool{
	OpLessThan:       func(a, b float64) bool { return a < b },
	OpLessOrEqual:    func(a, b float64) bool { return a <= b },
	OpGreaterThan:    func(a, b float64) bool { return a > b },
	OpGreaterOrEqual: func(a, b float64) bool { return a >= b },
}

// Evaluate applies the expression to a resolved value. A missing actual
// value is not-equal to anything: only "!=" holds, every other operator
// fails without error. Ordering operators require numeric operands.
func Evaluate(expr Expr, actual document.Value) (bool, error) {
	if _, ok := supportedOperatorSet[expr.Op]; !ok {
		return false, fmt.Errorf("%w: %q", ErrUnsupported, expr.Op)
	}

	if actual.IsMissing() {
		return expr.Op == OpNotEquals, nil
	}

	switch expr.Op {
	case OpEquals:
		return actual.Equal(document.FromAny(expr.Value)), nil
	case OpNotEquals:
		return !actual.Equal(document.FromAny(expr.Value)), nil
	default:
		return evaluateOrdering(expr.Op, actual, expr.Value)
	}
}

func evaluateOrdering(op Operator, actual document.Value, expected any) (bool, error) {
	actualNumber, actualIsNumber := actual.Float64()
	expectedNumber, expectedIsNumber := number.ToFloat64(expected)
	if !actualIsNumber || !expectedIsNumber {
		return false, fmt.Errorf("%w: %q requires numeric values, got %s and %T",
			ErrInvalidInput, op, actual.Kind(), expected)
	}

	return orderingCompare[op](actualNumber, expectedNumber), nil
}
