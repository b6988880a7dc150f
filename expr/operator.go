// Package expr implements the expression trees of a nonlinear optimization
// model: construction, deep copy, point evaluation, interval evaluation,
// curvature analysis, polynomial degree, variable substitution, and the
// monomial, polynomial and quadratic-element algebra the aggregate operators
// build on.
package expr

import (
	"errors"
	"fmt"

	"github.com/optlang/nlexpr/curvature"
	"github.com/optlang/nlexpr/interval"
)

// Operator identifies the operation a node applies to its children.
type Operator int

const (
	// OpInvalid is the zero Operator and belongs to no expression.
	OpInvalid Operator = iota

	// Leaves.

	// OpVar is a variable reference; its payload is the variable index.
	OpVar
	// OpConst is a numeric constant.
	OpConst
	// OpParam is a parameter reference; parameters are frozen during a
	// single evaluation but reassignable between evaluations.
	OpParam

	// Binary arithmetic.

	OpPlus
	OpMinus
	OpMul
	OpDiv

	// Univariate functions. The power operators carry the exponent as
	// payload.

	OpSquare
	OpSqrt
	OpRealPower
	OpIntPower
	OpSignPower
	OpExp
	OpLog
	OpSin
	OpCos
	OpTan

	// Binary comparisons and sign.

	OpMin
	OpMax
	OpAbs
	OpSign

	// Variadic aggregates. The last three carry structured payloads and
	// must be built with their dedicated constructors.

	OpSum
	OpProduct
	OpLinear
	OpQuadratic
	OpPolynomial

	opCount
)

// arityVariadic marks operators accepting any number of children.
const arityVariadic = -1

var (
	// ErrInvalidOperator reports an operator outside the table.
	ErrInvalidOperator = errors.New("invalid expression operator")

	// ErrComplexOperator reports an attempt to build an operator with a
	// structured payload through the generic constructor.
	ErrComplexOperator = errors.New("operator requires its dedicated constructor")
)

// evalFunc computes the value of a node from its child values. Leaf
// operators read from the variable and parameter value slices instead.
type evalFunc func(e *Expr, argvals []float64, varvals, paramvals []float64) float64

// intevalFunc computes bounds of a node from its child bounds. Leaf
// operators read from the variable bounds and parameter values instead.
type intevalFunc func(infinity float64, e *Expr, argvals []interval.Interval, varbounds []interval.Interval, paramvals []float64) interval.Interval

// curvFunc classifies the curvature of a node from child curvatures and child
// bounds.
type curvFunc func(infinity float64, e *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature

// copyFunc duplicates the structured payload of src into dst. Operators whose
// payload is a plain index or float need none.
type copyFunc func(dst, src *Expr)

type opInfo struct {
	name     string
	arity    int
	eval     evalFunc
	inteval  intevalFunc
	curv     curvFunc
	copydata copyFunc
}

var opTable = [opCount]opInfo{
	OpVar:        {"variable", 0, evalVar, intevalVar, curvLeaf, nil},
	OpConst:      {"constant", 0, evalConst, intevalConst, curvLeaf, nil},
	OpParam:      {"parameter", 0, evalParam, intevalParam, curvLeaf, nil},
	OpPlus:       {"plus", 2, evalPlus, intevalPlus, curvPlus, nil},
	OpMinus:      {"minus", 2, evalMinus, intevalMinus, curvMinus, nil},
	OpMul:        {"mul", 2, evalMul, intevalMul, curvMul, nil},
	OpDiv:        {"div", 2, evalDiv, intevalDiv, curvDiv, nil},
	OpSquare:     {"sqr", 1, evalSquare, intevalSquare, curvSquare, nil},
	OpSqrt:       {"sqrt", 1, evalSqrt, intevalSqrt, curvSqrt, nil},
	OpRealPower:  {"realpower", 1, evalRealPower, intevalRealPower, curvRealPower, nil},
	OpIntPower:   {"intpower", 1, evalIntPower, intevalIntPower, curvIntPower, nil},
	OpSignPower:  {"signpower", 1, evalSignPower, intevalSignPower, curvSignPower, nil},
	OpExp:        {"exp", 1, evalExp, intevalExp, curvExp, nil},
	OpLog:        {"log", 1, evalLog, intevalLog, curvLog, nil},
	OpSin:        {"sin", 1, evalSin, intevalSin, curvDefault, nil},
	OpCos:        {"cos", 1, evalCos, intevalCos, curvDefault, nil},
	OpTan:        {"tan", 1, evalTan, intevalTan, curvDefault, nil},
	OpMin:        {"min", 2, evalMin, intevalMin, curvMin, nil},
	OpMax:        {"max", 2, evalMax, intevalMax, curvMax, nil},
	OpAbs:        {"abs", 1, evalAbs, intevalAbs, curvAbs, nil},
	OpSign:       {"sign", 1, evalSign, intevalSign, curvSignOp, nil},
	OpSum:        {"sum", arityVariadic, evalSum, intevalSum, curvSum, nil},
	OpProduct:    {"prod", arityVariadic, evalProduct, intevalProduct, curvProduct, nil},
	OpLinear:     {"linear", arityVariadic, evalLinear, intevalLinear, curvLinear, copyDataLinear},
	OpQuadratic:  {"quadratic", arityVariadic, evalQuadratic, intevalQuadratic, curvQuadratic, copyDataQuadratic},
	OpPolynomial: {"polynomial", arityVariadic, evalPolynomial, intevalPolynomial, curvPolynomial, copyDataPolynomial},
}

// Valid reports whether op belongs to the operator table.
func (op Operator) Valid() bool {
	return op > OpInvalid && op < opCount && opTable[op].name != ""
}

// String returns the table name of op.
func (op Operator) String() string {
	if !op.Valid() {
		return fmt.Sprintf("operator(%d)", int(op))
	}
	return opTable[op].name
}

// Arity returns the number of children op requires, or -1 for variadic
// operators.
func (op Operator) Arity() int {
	if !op.Valid() {
		return 0
	}
	return opTable[op].arity
}
