package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optlang/nlexpr/curvature"
	"github.com/optlang/nlexpr/interval"
)

const inf = 1e20

func TestEvalArithmetic(t *testing.T) {
	x, y := []float64{3, -2}, []float64(nil)

	plus := mustExpr(New(OpPlus, NewVar(0), NewVar(1)))
	assert.Equal(t, 1.0, plus.Eval(x, y))

	minus := mustExpr(New(OpMinus, NewVar(0), NewVar(1)))
	assert.Equal(t, 5.0, minus.Eval(x, y))

	mul := mustExpr(New(OpMul, NewVar(0), NewVar(1)))
	assert.Equal(t, -6.0, mul.Eval(x, y))

	div := mustExpr(New(OpDiv, NewVar(0), NewVar(1)))
	assert.Equal(t, -1.5, div.Eval(x, y))

	sq := mustExpr(New(OpSquare, NewVar(1)))
	assert.Equal(t, 4.0, sq.Eval(x, y))

	sqrt := mustExpr(New(OpSqrt, NewVar(0)))
	assert.InDelta(t, math.Sqrt(3), sqrt.Eval(x, y), 1e-15)

	abs := mustExpr(New(OpAbs, NewVar(1)))
	assert.Equal(t, 2.0, abs.Eval(x, y))

	sign := mustExpr(New(OpSign, NewVar(1)))
	assert.Equal(t, -1.0, sign.Eval(x, y))
	assert.Equal(t, 1.0, sign.Eval([]float64{0, 0}, nil))

	minE := mustExpr(New(OpMin, NewVar(0), NewVar(1)))
	assert.Equal(t, -2.0, minE.Eval(x, y))
	maxE := mustExpr(New(OpMax, NewVar(0), NewVar(1)))
	assert.Equal(t, 3.0, maxE.Eval(x, y))
}

func TestEvalPowers(t *testing.T) {
	x := []float64{3}

	rp := NewRealPower(NewVar(0), 1.5)
	assert.InDelta(t, math.Pow(3, 1.5), rp.Eval(x, nil), 1e-12)

	for exp, want := range map[int]float64{-1: 1.0 / 3, 0: 1, 1: 3, 2: 9, 3: 27} {
		ip := NewIntPower(NewVar(0), exp)
		assert.InDelta(t, want, ip.Eval(x, nil), 1e-12, "exponent %d", exp)
	}

	// sign(x) * |x|^p
	sp := NewSignPower(NewVar(0), 2)
	assert.Equal(t, -4.0, sp.Eval([]float64{-2}, nil))
	assert.Equal(t, 4.0, sp.Eval([]float64{2}, nil))
}

func TestEvalTranscendental(t *testing.T) {
	x := []float64{0.5}
	cases := map[Operator]float64{
		OpExp: math.Exp(0.5),
		OpLog: math.Log(0.5),
		OpSin: math.Sin(0.5),
		OpCos: math.Cos(0.5),
		OpTan: math.Tan(0.5),
	}
	for op, want := range cases {
		e := mustExpr(New(op, NewVar(0)))
		assert.InDelta(t, want, e.Eval(x, nil), 1e-15, op.String())
	}
}

func TestEvalParamsAndVariadic(t *testing.T) {
	sum := mustExpr(New(OpSum, NewVar(0), NewParam(0), NewConst(4)))
	assert.Equal(t, 9.0, sum.Eval([]float64{3}, []float64{2}))

	prod := mustExpr(New(OpProduct, NewVar(0), NewParam(0), NewConst(4)))
	assert.Equal(t, 24.0, prod.Eval([]float64{3}, []float64{2}))

	empty := mustExpr(New(OpSum))
	assert.Equal(t, 0.0, empty.Eval(nil, nil))
	one := mustExpr(New(OpProduct))
	assert.Equal(t, 1.0, one.Eval(nil, nil))
}

func TestEvalLinear(t *testing.T) {
	lin := mustExpr(NewLinear([]float64{1, 2}, 0, NewVar(0), NewVar(1)))
	assert.Equal(t, -1.0, lin.Eval([]float64{3, -2}, nil))

	withConst := mustExpr(NewLinear([]float64{0.5}, -3, NewVar(0)))
	assert.Equal(t, -2.0, withConst.Eval([]float64{2}, nil))
}

func TestEvalQuadratic(t *testing.T) {
	// -1 + 3 x1 + x0^2 + 2 x0 x1 at (3, -2)
	q := mustExpr(NewQuadratic(-1, []float64{0, 3}, []QuadElem{
		{Idx1: 0, Idx2: 0, Coef: 1},
		{Idx1: 0, Idx2: 1, Coef: 2},
	}, NewVar(0), NewVar(1)))
	assert.Equal(t, -1+3*-2+9+2*3*-2.0, q.Eval([]float64{3, -2}, nil))
}

func TestEvalPolynomial(t *testing.T) {
	// 1 + 2 x0^2 x1 + 0.5 x1^-1
	p := mustExpr(NewPolynomial(1, []*Monomial{
		NewMonomial(2, []int{0, 1}, []float64{2, 1}),
		NewMonomial(0.5, []int{1}, []float64{-1}),
	}, NewVar(0), NewVar(1)))
	assert.InDelta(t, 1+2*9*4+0.5/4, p.Eval([]float64{3, 4}, nil), 1e-12)

	// a zero base with a positive exponent zeroes only its monomial
	assert.InDelta(t, 1+0.5/4, p.Eval([]float64{0, 4}, nil), 1e-12)

	// a zero base with a negative exponent poisons the whole polynomial
	assert.True(t, math.IsNaN(p.Eval([]float64{3, 0}, nil)))

	// 0^0 = 1
	z := mustExpr(NewPolynomial(0, []*Monomial{
		NewMonomial(3, []int{0}, []float64{0}),
	}, NewVar(0)))
	assert.Equal(t, 3.0, z.Eval([]float64{0}, nil))
}

func TestEvalIntBasics(t *testing.T) {
	sq := mustExpr(New(OpSquare, NewVar(0)))
	b := sq.EvalInt(inf, []interval.Interval{interval.New(-2, 3)}, nil)
	assert.Equal(t, interval.New(0, 9), b)

	lin := mustExpr(NewLinear([]float64{1, 2}, 1, NewVar(0), NewVar(1)))
	b = lin.EvalInt(inf, []interval.Interval{interval.New(0, 1), interval.New(-1, 1)}, nil)
	assert.Equal(t, interval.New(-1, 4), b)

	div := mustExpr(New(OpDiv, NewConst(1), NewVar(0)))
	b = div.EvalInt(inf, []interval.Interval{interval.New(-1, 1)}, nil)
	assert.True(t, b.IsEntire(inf))
}

func TestEvalIntQuadratic(t *testing.T) {
	// x0^2 - 2 x0 on [0, 3] ranges over [-1, 3]
	q := mustExpr(NewQuadratic(0, []float64{-2}, []QuadElem{
		{Idx1: 0, Idx2: 0, Coef: 1},
	}, NewVar(0)))
	b := q.EvalInt(inf, []interval.Interval{interval.New(0, 3)}, nil)
	assert.InDelta(t, -1, b.Inf, 1e-12)
	assert.InDelta(t, 3, b.Sup, 1e-12)
}

func TestEvalIntDegenerateMatchesPoint(t *testing.T) {
	trees := []*Expr{
		mustExpr(New(OpPlus,
			mustExpr(New(OpMul, NewVar(0), NewVar(1))),
			mustExpr(New(OpExp, NewVar(0))))),
		NewSignPower(NewVar(1), 1.5),
		mustExpr(NewPolynomial(2, []*Monomial{
			NewMonomial(1.5, []int{0, 1}, []float64{2, 1}),
		}, NewVar(0), NewVar(1))),
	}
	vals := []float64{0.75, -1.25}
	bounds := []interval.Interval{interval.Point(vals[0]), interval.Point(vals[1])}

	for _, e := range trees {
		want := e.Eval(vals, nil)
		got := e.EvalInt(inf, bounds, nil)
		assert.InDelta(t, want, got.Inf, 1e-9)
		assert.InDelta(t, want, got.Sup, 1e-9)
	}
}

func TestEvalIntTrigFallback(t *testing.T) {
	sin := mustExpr(New(OpSin, NewVar(0)))
	b := sin.EvalInt(inf, []interval.Interval{interval.New(-10, 10)}, nil)
	assert.Equal(t, interval.New(-1, 1), b)

	tan := mustExpr(New(OpTan, NewVar(0)))
	assert.True(t, tan.EvalInt(inf, []interval.Interval{interval.New(-10, 10)}, nil).IsEntire(inf))
}

func TestCheckCurvatureBasics(t *testing.T) {
	box := []interval.Interval{interval.New(-1, 1), interval.New(-1, 1)}

	curv, _ := mustExpr(New(OpSquare, NewVar(0))).CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Convex, curv)

	curv, _ = mustExpr(New(OpExp, NewVar(0))).CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Convex, curv)

	curv, _ = mustExpr(New(OpLog, NewVar(0))).CheckCurvature(inf, []interval.Interval{interval.New(0.1, 2)}, nil)
	assert.Equal(t, curvature.Concave, curv)

	curv, _ = mustExpr(New(OpMul, NewVar(0), NewVar(1))).CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Unknown, curv)

	curv, bounds := mustExpr(NewLinear([]float64{2, -1}, 3, NewVar(0), NewVar(1))).CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Linear, curv)
	assert.Equal(t, interval.New(0, 6), bounds)
}

func TestCheckCurvaturePointChildIsLinear(t *testing.T) {
	// x0 * x1 with x1 fixed to a point is linear in x0
	bounds := []interval.Interval{interval.New(-1, 1), interval.Point(2)}
	curv, _ := mustExpr(New(OpMul, NewVar(0), NewVar(1))).CheckCurvature(inf, bounds, nil)
	assert.Equal(t, curvature.Linear, curv)

	// the fixed child still evaluates to a point interval
	_, b := mustExpr(New(OpExp, NewVar(1))).CheckCurvature(inf, bounds, nil)
	assert.True(t, b.IsPoint())
}

func TestCheckCurvatureQuadratic(t *testing.T) {
	box := []interval.Interval{interval.New(-5, 5), interval.New(-5, 5)}

	convex := mustExpr(NewQuadratic(0, []float64{1, 0}, []QuadElem{
		{Idx1: 0, Idx2: 0, Coef: 1},
		{Idx1: 1, Idx2: 1, Coef: 2},
	}, NewVar(0), NewVar(1)))
	curv, _ := convex.CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Convex, curv)

	concave := mustExpr(NewQuadratic(0, nil, []QuadElem{
		{Idx1: 0, Idx2: 0, Coef: -1},
	}, NewVar(0)))
	curv, _ = concave.CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Concave, curv)

	bilinear := mustExpr(NewQuadratic(0, nil, []QuadElem{
		{Idx1: 0, Idx2: 1, Coef: 1},
	}, NewVar(0), NewVar(1)))
	curv, _ = bilinear.CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Unknown, curv)
}

func TestCheckCurvaturePolynomial(t *testing.T) {
	// geometric mean x0^0.5 x1^0.5 is concave on the positive orthant
	pos := []interval.Interval{interval.New(0.1, 5), interval.New(0.1, 5)}
	geo := mustExpr(NewPolynomial(0, []*Monomial{
		NewMonomial(1, []int{0, 1}, []float64{0.5, 0.5}),
	}, NewVar(0), NewVar(1)))
	curv, _ := geo.CheckCurvature(inf, pos, nil)
	assert.Equal(t, curvature.Concave, curv)

	// x0^2 / x1 is convex on the positive orthant
	frac := mustExpr(NewPolynomial(0, []*Monomial{
		NewMonomial(1, []int{0, 1}, []float64{2, -1}),
	}, NewVar(0), NewVar(1)))
	curv, _ = frac.CheckCurvature(inf, []interval.Interval{interval.New(0.1, 5), interval.New(0.1, 5)}, nil)
	assert.Equal(t, curvature.Convex, curv)
}

func TestCheckCurvatureProductZeroConstant(t *testing.T) {
	box := []interval.Interval{interval.New(-1, 1)}

	// a zero constant factor collapses the product regardless of position
	p := mustExpr(New(OpProduct, mustExpr(New(OpSin, NewVar(0))), NewConst(0)))
	curv, _ := p.CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Linear, curv)

	p = mustExpr(New(OpProduct, NewConst(0), mustExpr(New(OpSin, NewVar(0)))))
	curv, _ = p.CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Linear, curv)

	// two non-constant factors stay unclassified
	p = mustExpr(New(OpProduct, NewVar(0), mustExpr(New(OpSin, NewVar(0))), NewConst(0)))
	curv, _ = p.CheckCurvature(inf, box, nil)
	assert.Equal(t, curvature.Unknown, curv)
}

func TestEvalManyChildrenSpillsHeap(t *testing.T) {
	children := make([]*Expr, 30)
	vals := make([]float64, 30)
	want := 0.0
	for i := range children {
		children[i] = NewVar(i)
		vals[i] = float64(i)
		want += float64(i)
	}
	sum := mustExpr(New(OpSum, children...))
	require.Equal(t, 30, sum.NChildren())
	assert.Equal(t, want, sum.Eval(vals, nil))
}
