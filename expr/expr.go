package expr

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// DegreeInfinity is the degree reported for expressions that are not
// polynomials.
const DegreeInfinity = 65535

// maxChildEst is the child count up to which evaluation walkers stage child
// results in a stack buffer instead of allocating.
const maxChildEst = 20

// Expr is a node of an expression tree. A node owns its children
// exclusively; sharing subtrees between expressions is not allowed.
type Expr struct {
	op       Operator
	children []*Expr

	// payloads; which field is live depends on op
	index  int     // OpVar, OpParam
	value  float64 // OpConst, OpRealPower, OpSignPower
	intval int     // OpIntPower
	linear *linearData
	quad   *quadData
	poly   *Polynomial
}

// NewVar returns a variable reference with the given index.
func NewVar(index int) *Expr {
	return &Expr{op: OpVar, index: index}
}

// NewConst returns a constant expression.
func NewConst(value float64) *Expr {
	return &Expr{op: OpConst, value: value}
}

// NewParam returns a parameter reference with the given index.
func NewParam(index int) *Expr {
	return &Expr{op: OpParam, index: index}
}

// NewRealPower returns child^exponent for a real exponent.
func NewRealPower(child *Expr, exponent float64) *Expr {
	return &Expr{op: OpRealPower, children: []*Expr{child}, value: exponent}
}

// NewIntPower returns child^exponent for an integer exponent.
func NewIntPower(child *Expr, exponent int) *Expr {
	return &Expr{op: OpIntPower, children: []*Expr{child}, intval: exponent}
}

// NewSignPower returns sign(child)*|child|^exponent. The exponent must be
// positive for the function to be monotone.
func NewSignPower(child *Expr, exponent float64) *Expr {
	return &Expr{op: OpSignPower, children: []*Expr{child}, value: exponent}
}

// New builds an expression for an operator without payload, validating the
// child count against the operator's arity. Operators carrying payloads,
// including Linear, Quadratic and Polynomial, must be built with their
// dedicated constructors and make New fail with ErrComplexOperator.
func New(op Operator, children ...*Expr) (*Expr, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOperator, int(op))
	}
	switch op {
	case OpVar, OpConst, OpParam, OpRealPower, OpIntPower, OpSignPower,
		OpLinear, OpQuadratic, OpPolynomial:
		return nil, fmt.Errorf("%s: %w", op, ErrComplexOperator)
	}
	if a := op.Arity(); a != arityVariadic && len(children) != a {
		return nil, fmt.Errorf("%w: %s expects %d children, got %d", ErrInvalidOperator, op, a, len(children))
	}
	for _, c := range children {
		if c == nil {
			return nil, fmt.Errorf("%w: %s got a nil child", ErrInvalidOperator, op)
		}
	}
	return &Expr{op: op, children: children}, nil
}

// NewLinear returns the affine expression
//
//	constant + sum_i coefs[i]*children[i].
//
// The coefficient slice is copied and must match the children in length.
func NewLinear(coefs []float64, constant float64, children ...*Expr) (*Expr, error) {
	if len(coefs) != len(children) {
		return nil, fmt.Errorf("%w: linear got %d coefficients for %d children", ErrInvalidOperator, len(coefs), len(children))
	}
	data := &linearData{
		coefs:    append([]float64(nil), coefs...),
		constant: constant,
	}
	return &Expr{op: OpLinear, children: children, linear: data}, nil
}

// NewQuadratic returns the quadratic form
//
//	constant + sum_i lincoefs[i]*children[i] + sum_e e.Coef*children[e.Idx1]*children[e.Idx2].
//
// lincoefs may be nil when the form has no linear part; otherwise it must
// match the children in length. Coefficient and element slices are copied.
func NewQuadratic(constant float64, lincoefs []float64, elems []QuadElem, children ...*Expr) (*Expr, error) {
	if lincoefs != nil && len(lincoefs) != len(children) {
		return nil, fmt.Errorf("%w: quadratic got %d linear coefficients for %d children", ErrInvalidOperator, len(lincoefs), len(children))
	}
	for _, el := range elems {
		if el.Idx1 < 0 || el.Idx2 >= len(children) || el.Idx1 > el.Idx2 {
			return nil, fmt.Errorf("%w: quadratic element (%d,%d) out of range for %d children", ErrInvalidOperator, el.Idx1, el.Idx2, len(children))
		}
	}
	data := &quadData{
		constant: constant,
		elems:    append([]QuadElem(nil), elems...),
		sorted:   len(elems) <= 1,
	}
	if lincoefs != nil {
		data.lincoefs = append([]float64(nil), lincoefs...)
	}
	return &Expr{op: OpQuadratic, children: children, quad: data}, nil
}

// NewPolynomial returns the generalized polynomial
//
//	constant + sum_m m.Coef * prod_j children[m.ChildIdx(j)]^m.Exponent(j).
//
// The expression takes ownership of the monomials.
func NewPolynomial(constant float64, monomials []*Monomial, children ...*Expr) (*Expr, error) {
	for _, m := range monomials {
		for j := 0; j < m.NFactors(); j++ {
			if idx := m.ChildIdx(j); idx < 0 || idx >= len(children) {
				return nil, fmt.Errorf("%w: polynomial factor index %d out of range for %d children", ErrInvalidOperator, idx, len(children))
			}
		}
	}
	data := &Polynomial{
		Constant:  constant,
		monomials: monomials,
		sorted:    len(monomials) <= 1,
	}
	return &Expr{op: OpPolynomial, children: children, poly: data}, nil
}

// Op returns the node's operator.
func (e *Expr) Op() Operator { return e.op }

// NChildren returns the number of children.
func (e *Expr) NChildren() int { return len(e.children) }

// Children returns the child slice. The slice is owned by the node.
func (e *Expr) Children() []*Expr { return e.children }

// Child returns the i-th child.
func (e *Expr) Child(i int) *Expr { return e.children[i] }

// Index returns the variable or parameter index of a leaf node.
func (e *Expr) Index() int { return e.index }

// Value returns the value of a constant node.
func (e *Expr) Value() float64 { return e.value }

// RealPowerExp returns the exponent of a real-power or sign-power node.
func (e *Expr) RealPowerExp() float64 { return e.value }

// IntPowerExp returns the exponent of an integer-power node.
func (e *Expr) IntPowerExp() int { return e.intval }

// LinearCoefs returns the coefficients of a linear node, aligned with its
// children. The slice is owned by the node.
func (e *Expr) LinearCoefs() []float64 {
	if e.linear == nil {
		return nil
	}
	return e.linear.coefs
}

// LinearConstant returns the constant term of a linear node.
func (e *Expr) LinearConstant() float64 {
	if e.linear == nil {
		return 0
	}
	return e.linear.constant
}

// QuadConstant returns the constant term of a quadratic node.
func (e *Expr) QuadConstant() float64 {
	if e.quad == nil {
		return 0
	}
	return e.quad.constant
}

// QuadLinCoefs returns the linear coefficients of a quadratic node, or nil if
// the form has no linear part. The slice is owned by the node.
func (e *Expr) QuadLinCoefs() []float64 {
	if e.quad == nil {
		return nil
	}
	return e.quad.lincoefs
}

// QuadElems returns the quadratic elements of a quadratic node. The slice is
// owned by the node.
func (e *Expr) QuadElems() []QuadElem {
	if e.quad == nil {
		return nil
	}
	return e.quad.elems
}

// SortQuadElems sorts the elements of a quadratic node by index pair.
func (e *Expr) SortQuadElems() {
	if e.quad != nil {
		e.quad.sort()
	}
}

// Polynomial returns the payload of a polynomial node, or nil for any other
// operator.
func (e *Expr) Polynomial() *Polynomial { return e.poly }

type linearData struct {
	coefs    []float64
	constant float64
}

type quadData struct {
	constant float64
	lincoefs []float64
	elems    []QuadElem
	sorted   bool
}

func (q *quadData) sort() {
	if q.sorted {
		return
	}
	SortQuadElems(q.elems)
	q.sorted = true
}

func copyDataLinear(dst, src *Expr) {
	dst.linear = &linearData{
		coefs:    append([]float64(nil), src.linear.coefs...),
		constant: src.linear.constant,
	}
}

func copyDataQuadratic(dst, src *Expr) {
	dst.quad = &quadData{
		constant: src.quad.constant,
		elems:    append([]QuadElem(nil), src.quad.elems...),
		sorted:   src.quad.sorted,
	}
	if src.quad.lincoefs != nil {
		dst.quad.lincoefs = append([]float64(nil), src.quad.lincoefs...)
	}
}

func copyDataPolynomial(dst, src *Expr) {
	dst.poly = src.poly.Copy()
}

// Copy returns a deep copy of the expression, including structured payloads.
func (e *Expr) Copy() *Expr {
	c := &Expr{op: e.op, index: e.index, value: e.value, intval: e.intval}
	if len(e.children) > 0 {
		c.children = make([]*Expr, len(e.children))
		for i, ch := range e.children {
			c.children[i] = ch.Copy()
		}
	}
	if f := opTable[e.op].copydata; f != nil {
		f(c, e)
	}
	return c
}

// SubstituteVars replaces every variable node whose index has a non-nil entry
// in substs with a deep copy of that entry. Inner nodes are rewired in place;
// the returned node is the root after substitution, which differs from e only
// when e itself is a substituted variable.
func (e *Expr) SubstituteVars(substs []*Expr) *Expr {
	if e.op == OpVar {
		if e.index < len(substs) && substs[e.index] != nil {
			return substs[e.index].Copy()
		}
		return e
	}
	for i, ch := range e.children {
		e.children[i] = ch.SubstituteVars(substs)
	}
	return e
}

// ReindexVars maps every variable index through newindices. Indices without
// an entry are left unchanged.
func (e *Expr) ReindexVars(newindices []int) {
	if e.op == OpVar && e.index < len(newindices) {
		e.index = newindices[e.index]
	}
	for _, ch := range e.children {
		ch.ReindexVars(newindices)
	}
}

// ReindexParams maps every parameter index through newindices. Indices
// without an entry are left unchanged.
func (e *Expr) ReindexParams(newindices []int) {
	if e.op == OpParam && e.index < len(newindices) {
		e.index = newindices[e.index]
	}
	for _, ch := range e.children {
		ch.ReindexParams(newindices)
	}
}

// HasParam reports whether the expression references any parameter.
func (e *Expr) HasParam() bool {
	if e.op == OpParam {
		return true
	}
	for _, ch := range e.children {
		if ch.HasParam() {
			return true
		}
	}
	return false
}

// VarsUsage adds the number of references of each variable to counts.
// Variables with indices beyond the slice are ignored.
func (e *Expr) VarsUsage(counts []int) {
	if e.op == OpVar && e.index >= 0 && e.index < len(counts) {
		counts[e.index]++
	}
	for _, ch := range e.children {
		ch.VarsUsage(counts)
	}
}

func epsEq(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func epsZero(a, eps float64) bool {
	return math.Abs(a) <= eps
}

// AreEqual reports whether two expressions have the same structure, with
// numeric payloads compared up to eps. Commutative rearrangements are not
// recognized: x*y and y*x compare unequal.
func AreEqual(e1, e2 *Expr, eps float64) bool {
	if e1 == e2 {
		return true
	}
	if e1.op != e2.op {
		return false
	}

	switch e1.op {
	case OpVar, OpParam:
		return e1.index == e2.index

	case OpConst:
		return epsEq(e1.value, e2.value, eps)

	case OpRealPower, OpSignPower:
		return epsEq(e1.value, e2.value, eps) && AreEqual(e1.children[0], e2.children[0], eps)

	case OpIntPower:
		return e1.intval == e2.intval && AreEqual(e1.children[0], e2.children[0], eps)

	case OpLinear:
		if len(e1.children) != len(e2.children) {
			return false
		}
		if !epsEq(e1.linear.constant, e2.linear.constant, eps) {
			return false
		}
		for i := range e1.linear.coefs {
			if !epsEq(e1.linear.coefs[i], e2.linear.coefs[i], eps) {
				return false
			}
		}
		return childrenEqual(e1, e2, eps)

	case OpQuadratic:
		if len(e1.children) != len(e2.children) {
			return false
		}
		q1, q2 := e1.quad, e2.quad
		if len(q1.elems) != len(q2.elems) {
			return false
		}
		if !epsEq(q1.constant, q2.constant, eps) {
			return false
		}
		if q1.lincoefs != nil || q2.lincoefs != nil {
			for i := range e1.children {
				c1, c2 := 0.0, 0.0
				if q1.lincoefs != nil {
					c1 = q1.lincoefs[i]
				}
				if q2.lincoefs != nil {
					c2 = q2.lincoefs[i]
				}
				if !epsEq(c1, c2, eps) {
					return false
				}
			}
		}
		q1.sort()
		q2.sort()
		for i := range q1.elems {
			if q1.elems[i].Idx1 != q2.elems[i].Idx1 ||
				q1.elems[i].Idx2 != q2.elems[i].Idx2 ||
				!epsEq(q1.elems[i].Coef, q2.elems[i].Coef, eps) {
				return false
			}
		}
		return childrenEqual(e1, e2, eps)

	case OpPolynomial:
		if len(e1.children) != len(e2.children) {
			return false
		}
		p1, p2 := e1.poly, e2.poly
		if len(p1.monomials) != len(p2.monomials) {
			return false
		}
		if !epsEq(p1.Constant, p2.Constant, eps) {
			return false
		}
		p1.Sort()
		p2.Sort()
		for i := range p1.monomials {
			if !MonomialsEqual(p1.monomials[i], p2.monomials[i], eps) {
				return false
			}
		}
		return childrenEqual(e1, e2, eps)

	default:
		if len(e1.children) != len(e2.children) {
			return false
		}
		return childrenEqual(e1, e2, eps)
	}
}

func childrenEqual(e1, e2 *Expr, eps float64) bool {
	for i := range e1.children {
		if !AreEqual(e1.children[i], e2.children[i], eps) {
			return false
		}
	}
	return true
}

func capDegree(d int) int {
	if d > DegreeInfinity {
		return DegreeInfinity
	}
	return d
}

// MaxDegree returns the maximal degree of the expression seen as a polynomial
// in its variables, or DegreeInfinity if it is not a polynomial. Parameters
// count as constants.
func (e *Expr) MaxDegree() int {
	switch e.op {
	case OpVar:
		return 1

	case OpConst, OpParam:
		return 0

	case OpPlus, OpMinus:
		d1 := e.children[0].MaxDegree()
		d2 := e.children[1].MaxDegree()
		return max(d1, d2)

	case OpMul:
		return capDegree(e.children[0].MaxDegree() + e.children[1].MaxDegree())

	case OpDiv:
		// division by a non-constant is not a polynomial
		if e.children[1].MaxDegree() != 0 {
			return DegreeInfinity
		}
		return e.children[0].MaxDegree()

	case OpSquare:
		return capDegree(2 * e.children[0].MaxDegree())

	case OpSqrt, OpSignPower:
		if e.children[0].MaxDegree() != 0 {
			return DegreeInfinity
		}
		return 0

	case OpRealPower:
		d := e.children[0].MaxDegree()
		if d == 0 {
			return 0
		}
		if d >= DegreeInfinity {
			return DegreeInfinity
		}
		switch {
		case e.value == 0:
			return 0
		case e.value > 0 && float64(int(e.value)) == e.value:
			return capDegree(d * int(e.value))
		default:
			return DegreeInfinity
		}

	case OpIntPower:
		d := e.children[0].MaxDegree()
		if d == 0 || e.intval == 0 {
			return 0
		}
		if d >= DegreeInfinity || e.intval < 0 {
			return DegreeInfinity
		}
		return capDegree(d * e.intval)

	case OpExp, OpLog, OpSin, OpCos, OpTan, OpAbs, OpSign:
		if e.children[0].MaxDegree() != 0 {
			return DegreeInfinity
		}
		return 0

	case OpMin, OpMax:
		if e.children[0].MaxDegree() != 0 || e.children[1].MaxDegree() != 0 {
			return DegreeInfinity
		}
		return 0

	case OpSum, OpLinear:
		d := 0
		for _, ch := range e.children {
			if cd := ch.MaxDegree(); cd > d {
				d = cd
			}
			if d >= DegreeInfinity {
				return DegreeInfinity
			}
		}
		return d

	case OpProduct:
		d := 0
		for _, ch := range e.children {
			cd := ch.MaxDegree()
			if cd >= DegreeInfinity {
				return DegreeInfinity
			}
			d += cd
		}
		return capDegree(d)

	case OpQuadratic:
		return e.quadMaxDegree()

	case OpPolynomial:
		return e.polyMaxDegree()
	}

	return DegreeInfinity
}

func (e *Expr) quadMaxDegree() int {
	q := e.quad
	q.sort()

	childdeg := make([]int, len(e.children))
	for i := range childdeg {
		childdeg[i] = -1
	}
	deg := func(i int) int {
		if childdeg[i] < 0 {
			childdeg[i] = e.children[i].MaxDegree()
		}
		return childdeg[i]
	}

	maxdeg := 0
	if q.lincoefs != nil {
		for i, c := range q.lincoefs {
			if c == 0 {
				continue
			}
			d := deg(i)
			if d >= DegreeInfinity {
				return DegreeInfinity
			}
			if d > maxdeg {
				maxdeg = d
			}
		}
	}
	for _, el := range q.elems {
		d1 := deg(el.Idx1)
		if d1 >= DegreeInfinity {
			return DegreeInfinity
		}
		var d int
		if el.Idx1 == el.Idx2 {
			d = 2 * d1
		} else {
			d2 := deg(el.Idx2)
			if d2 >= DegreeInfinity {
				return DegreeInfinity
			}
			d = d1 + d2
		}
		if d > maxdeg {
			maxdeg = d
		}
	}
	return capDegree(maxdeg)
}

func (e *Expr) polyMaxDegree() int {
	maxdeg := 0
	for _, m := range e.poly.monomials {
		mdeg := 0
		for j := 0; j < m.NFactors(); j++ {
			d := e.children[m.ChildIdx(j)].MaxDegree()
			exp := m.Exponent(j)
			// a fractional or negative exponent on a non-constant child
			// leaves the polynomial ring
			if d != 0 && (exp < 0 || float64(int(exp)) != exp) {
				return DegreeInfinity
			}
			mdeg += d * int(exp)
		}
		if mdeg > maxdeg {
			maxdeg = mdeg
		}
		if maxdeg >= DegreeInfinity {
			return DegreeInfinity
		}
	}
	return capDegree(maxdeg)
}

// String formats the expression with default variable and parameter names.
func (e *Expr) String() string {
	var sb strings.Builder
	e.print(&sb, nil, nil)
	return sb.String()
}

// Print writes the expression to w, taking variable and parameter names from
// the given slices. Indices beyond a slice, or a nil slice, fall back to
// var<i> and param<i>.
func (e *Expr) Print(w io.Writer, varnames, paramnames []string) {
	e.print(w, varnames, paramnames)
}

func (e *Expr) print(w io.Writer, varnames, paramnames []string) {
	switch e.op {
	case OpVar:
		if e.index < len(varnames) {
			fmt.Fprint(w, varnames[e.index])
		} else {
			fmt.Fprintf(w, "var%d", e.index)
		}

	case OpParam:
		if e.index < len(paramnames) {
			fmt.Fprint(w, paramnames[e.index])
		} else {
			fmt.Fprintf(w, "param%d", e.index)
		}

	case OpConst:
		if e.value < 0 {
			fmt.Fprintf(w, "(%g)", e.value)
		} else {
			fmt.Fprintf(w, "%g", e.value)
		}

	case OpPlus, OpMinus, OpMul, OpDiv:
		ops := map[Operator]string{OpPlus: " + ", OpMinus: " - ", OpMul: " * ", OpDiv: " / "}
		fmt.Fprint(w, "(")
		e.children[0].print(w, varnames, paramnames)
		fmt.Fprint(w, ops[e.op])
		e.children[1].print(w, varnames, paramnames)
		fmt.Fprint(w, ")")

	case OpRealPower, OpSignPower:
		fmt.Fprintf(w, "%s(", e.op)
		e.children[0].print(w, varnames, paramnames)
		fmt.Fprintf(w, ", %g)", e.value)

	case OpIntPower:
		fmt.Fprint(w, "power(")
		e.children[0].print(w, varnames, paramnames)
		fmt.Fprintf(w, ", %d)", e.intval)

	case OpSquare, OpSqrt, OpExp, OpLog, OpSin, OpCos, OpTan, OpMin, OpMax, OpAbs, OpSign:
		fmt.Fprintf(w, "%s(", e.op)
		for i, ch := range e.children {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			ch.print(w, varnames, paramnames)
		}
		fmt.Fprint(w, ")")

	case OpSum, OpProduct:
		switch len(e.children) {
		case 0:
			if e.op == OpSum {
				fmt.Fprint(w, "0")
			} else {
				fmt.Fprint(w, "1")
			}
		case 1:
			e.children[0].print(w, varnames, paramnames)
		default:
			sep := " + "
			if e.op == OpProduct {
				sep = " * "
			}
			fmt.Fprint(w, "(")
			for i, ch := range e.children {
				if i > 0 {
					fmt.Fprint(w, sep)
				}
				ch.print(w, varnames, paramnames)
			}
			fmt.Fprint(w, ")")
		}

	case OpLinear:
		if len(e.children) == 0 {
			fmt.Fprintf(w, "%g", e.linear.constant)
			return
		}
		fmt.Fprint(w, "(")
		if e.linear.constant != 0 {
			fmt.Fprintf(w, "%g", e.linear.constant)
		}
		for i, ch := range e.children {
			fmt.Fprintf(w, " %+g ", e.linear.coefs[i])
			ch.print(w, varnames, paramnames)
		}
		fmt.Fprint(w, ")")

	case OpQuadratic:
		fmt.Fprint(w, "(")
		if e.quad.constant != 0 {
			fmt.Fprintf(w, " %+g ", e.quad.constant)
		}
		if e.quad.lincoefs != nil {
			for i, c := range e.quad.lincoefs {
				if c == 0 {
					continue
				}
				fmt.Fprintf(w, " %+g ", c)
				e.children[i].print(w, varnames, paramnames)
			}
		}
		for _, el := range e.quad.elems {
			fmt.Fprintf(w, " %+g ", el.Coef)
			e.children[el.Idx1].print(w, varnames, paramnames)
			if el.Idx1 == el.Idx2 {
				fmt.Fprint(w, "^2")
			} else {
				fmt.Fprint(w, " * ")
				e.children[el.Idx2].print(w, varnames, paramnames)
			}
		}
		fmt.Fprint(w, ")")

	case OpPolynomial:
		fmt.Fprint(w, "(")
		if e.poly.Constant != 0 || len(e.poly.monomials) == 0 {
			fmt.Fprintf(w, "%g", e.poly.Constant)
		}
		for _, m := range e.poly.monomials {
			fmt.Fprintf(w, " %+g", m.Coef)
			for j := 0; j < m.NFactors(); j++ {
				fmt.Fprint(w, " * ")
				e.children[m.ChildIdx(j)].print(w, varnames, paramnames)
				switch exp := m.Exponent(j); {
				case exp < 0:
					fmt.Fprintf(w, "^(%g)", exp)
				case exp != 1:
					fmt.Fprintf(w, "^%g", exp)
				}
			}
		}
		fmt.Fprint(w, ")")
	}
}
