package expr

import (
	"log/slog"
	"math"

	"github.com/optlang/nlexpr/curvature"
	"github.com/optlang/nlexpr/interval"
)

var logger *slog.Logger

// SetLogger routes diagnostic warnings to l. A nil l restores the default.
func SetLogger(l *slog.Logger) {
	logger = l
}

func logWarn(msg string, args ...any) {
	l := logger
	if l == nil {
		l = slog.Default()
	}
	l.Warn(msg, args...)
}

// Eval evaluates the expression at the given variable and parameter values.
// Domain violations follow float64 semantics and yield NaN or an infinity.
func (e *Expr) Eval(varvals, paramvals []float64) float64 {
	var staticbuf [maxChildEst]float64
	buf := staticbuf[:]
	if len(e.children) > maxChildEst {
		buf = make([]float64, len(e.children))
	}
	for i, ch := range e.children {
		buf[i] = ch.Eval(varvals, paramvals)
	}
	return opTable[e.op].eval(e, buf[:len(e.children)], varvals, paramvals)
}

// EvalInt computes bounds on the expression value over the given variable
// bounds. infinity is the caller's sentinel for unbounded directions.
func (e *Expr) EvalInt(infinity float64, varbounds []interval.Interval, paramvals []float64) interval.Interval {
	var staticbuf [maxChildEst]interval.Interval
	buf := staticbuf[:]
	if len(e.children) > maxChildEst {
		buf = make([]interval.Interval, len(e.children))
	}
	for i, ch := range e.children {
		buf[i] = ch.EvalInt(infinity, varbounds, paramvals)
	}
	return opTable[e.op].inteval(infinity, e, buf[:len(e.children)], varbounds, paramvals)
}

// CheckCurvature classifies the curvature of the expression over the given
// variable bounds and returns it together with bounds on the expression
// value. Children whose bounds degenerate to a point are treated as constant,
// which sharpens the classification of their parents.
func (e *Expr) CheckCurvature(infinity float64, varbounds []interval.Interval, paramvals []float64) (curvature.Curvature, interval.Interval) {
	var staticbounds [maxChildEst]interval.Interval
	var staticcurv [maxChildEst]curvature.Curvature
	childbounds := staticbounds[:]
	childcurv := staticcurv[:]
	if len(e.children) > maxChildEst {
		childbounds = make([]interval.Interval, len(e.children))
		childcurv = make([]curvature.Curvature, len(e.children))
	}
	for i, ch := range e.children {
		childcurv[i], childbounds[i] = ch.CheckCurvature(infinity, varbounds, paramvals)
	}
	childbounds = childbounds[:len(e.children)]
	childcurv = childcurv[:len(e.children)]
	for i := range childbounds {
		if childbounds[i].IsPoint() {
			childcurv[i] = curvature.Linear
		}
	}
	curv := opTable[e.op].curv(infinity, e, childbounds, childcurv)
	bounds := opTable[e.op].inteval(infinity, e, childbounds, varbounds, paramvals)
	return curv, bounds
}

// point evaluation handlers

func evalVar(e *Expr, _ []float64, varvals, _ []float64) float64 {
	return varvals[e.index]
}

func evalConst(e *Expr, _ []float64, _, _ []float64) float64 {
	return e.value
}

func evalParam(e *Expr, _ []float64, _, paramvals []float64) float64 {
	return paramvals[e.index]
}

func evalPlus(_ *Expr, args []float64, _, _ []float64) float64 {
	return args[0] + args[1]
}

func evalMinus(_ *Expr, args []float64, _, _ []float64) float64 {
	return args[0] - args[1]
}

func evalMul(_ *Expr, args []float64, _, _ []float64) float64 {
	return args[0] * args[1]
}

func evalDiv(_ *Expr, args []float64, _, _ []float64) float64 {
	return args[0] / args[1]
}

func evalSquare(_ *Expr, args []float64, _, _ []float64) float64 {
	return args[0] * args[0]
}

func evalSqrt(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Sqrt(args[0])
}

func evalRealPower(e *Expr, args []float64, _, _ []float64) float64 {
	return math.Pow(args[0], e.value)
}

func evalIntPower(e *Expr, args []float64, _, _ []float64) float64 {
	switch e.intval {
	case -1:
		return 1 / args[0]
	case 0:
		return 1
	case 1:
		return args[0]
	case 2:
		return args[0] * args[0]
	default:
		return math.Pow(args[0], float64(e.intval))
	}
}

func evalSignPower(e *Expr, args []float64, _, _ []float64) float64 {
	if args[0] > 0 {
		return math.Pow(args[0], e.value)
	}
	return -math.Pow(-args[0], e.value)
}

func evalExp(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Exp(args[0])
}

func evalLog(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Log(args[0])
}

func evalSin(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Sin(args[0])
}

func evalCos(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Cos(args[0])
}

func evalTan(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Tan(args[0])
}

func evalMin(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Min(args[0], args[1])
}

func evalMax(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Max(args[0], args[1])
}

func evalAbs(_ *Expr, args []float64, _, _ []float64) float64 {
	return math.Abs(args[0])
}

func evalSign(_ *Expr, args []float64, _, _ []float64) float64 {
	if args[0] < 0 {
		return -1
	}
	return 1
}

func evalSum(_ *Expr, args []float64, _, _ []float64) float64 {
	s := 0.0
	for _, v := range args {
		s += v
	}
	return s
}

func evalProduct(_ *Expr, args []float64, _, _ []float64) float64 {
	p := 1.0
	for _, v := range args {
		p *= v
	}
	return p
}

func evalLinear(e *Expr, args []float64, _, _ []float64) float64 {
	d := e.linear
	v := d.constant
	for i, c := range d.coefs {
		v += c * args[i]
	}
	return v
}

func evalQuadratic(e *Expr, args []float64, _, _ []float64) float64 {
	q := e.quad
	v := q.constant
	if q.lincoefs != nil {
		for i, c := range q.lincoefs {
			v += c * args[i]
		}
	}
	for _, el := range q.elems {
		v += el.Coef * args[el.Idx1] * args[el.Idx2]
	}
	return v
}

func evalPolynomial(e *Expr, args []float64, _, _ []float64) float64 {
	p := e.poly
	v := p.Constant
	for _, m := range p.monomials {
		mval := m.Coef
		for j := 0; j < m.NFactors(); j++ {
			childval := args[m.ChildIdx(j)]
			exponent := m.Exponent(j)

			if childval == 1 {
				continue
			}
			if childval == 0 {
				if exponent > 0 {
					// monomial is zero
					mval = 0
					break
				}
				if exponent < 0 {
					// 0^negative is undefined; the whole polynomial is
					return math.NaN()
				}
				// 0^0 counts as 1
				continue
			}

			switch exponent {
			case 0:
			case 1:
				mval *= childval
			case 2:
				mval *= childval * childval
			case 0.5:
				mval *= math.Sqrt(childval)
			case -1:
				mval /= childval
			case -2:
				mval /= childval * childval
			default:
				mval *= math.Pow(childval, exponent)
			}
		}
		v += mval
	}
	return v
}

// interval evaluation handlers

func intevalVar(_ float64, e *Expr, _ []interval.Interval, varbounds []interval.Interval, _ []float64) interval.Interval {
	return varbounds[e.index]
}

func intevalConst(_ float64, e *Expr, _ []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Point(e.value)
}

func intevalParam(_ float64, e *Expr, _ []interval.Interval, _ []interval.Interval, paramvals []float64) interval.Interval {
	return interval.Point(paramvals[e.index])
}

func intevalPlus(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Add(infinity, args[0], args[1])
}

func intevalMinus(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Sub(infinity, args[0], args[1])
}

func intevalMul(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Mul(infinity, args[0], args[1])
}

func intevalDiv(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Div(infinity, args[0], args[1])
}

func intevalSquare(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Square(infinity, args[0])
}

func intevalSqrt(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.SquareRoot(infinity, args[0])
}

func intevalRealPower(infinity float64, e *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.PowerScalar(infinity, args[0], e.value)
}

func intevalIntPower(infinity float64, e *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.PowerScalar(infinity, args[0], float64(e.intval))
}

func intevalSignPower(infinity float64, e *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.SignPowerScalar(infinity, args[0], e.value)
}

func intevalExp(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Exp(infinity, args[0])
}

func intevalLog(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Log(infinity, args[0])
}

func intevalSin(float64, *Expr, []interval.Interval, []interval.Interval, []float64) interval.Interval {
	// TODO tighten to the actual sine range over the argument bounds
	logWarn("sine interval evaluation gives only trivial bounds")
	return interval.New(-1, 1)
}

func intevalCos(float64, *Expr, []interval.Interval, []interval.Interval, []float64) interval.Interval {
	// TODO tighten to the actual cosine range over the argument bounds
	logWarn("cosine interval evaluation gives only trivial bounds")
	return interval.New(-1, 1)
}

func intevalTan(infinity float64, _ *Expr, _ []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	logWarn("tangent interval evaluation gives only trivial bounds")
	return interval.Entire(infinity)
}

func intevalMin(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Min(infinity, args[0], args[1])
}

func intevalMax(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Max(infinity, args[0], args[1])
}

func intevalAbs(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Abs(infinity, args[0])
}

func intevalSign(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	return interval.Sign(infinity, args[0])
}

func intevalSum(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	r := interval.Point(0)
	for _, a := range args {
		r = interval.Add(infinity, r, a)
	}
	return r
}

func intevalProduct(infinity float64, _ *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	r := interval.Point(1)
	for _, a := range args {
		r = interval.Mul(infinity, r, a)
	}
	return r
}

func intevalLinear(infinity float64, e *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	d := e.linear
	r := interval.ScalprodScalars(infinity, d.coefs, args)
	return interval.AddScalar(infinity, r, d.constant)
}

func intevalQuadratic(infinity float64, e *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	q := e.quad
	q.sort()

	r := interval.Point(q.constant)

	// for each child, collect its linear coefficient, its square coefficient
	// and the bilinear contributions with the child in first position, then
	// add the bounds of sqrcoef*x^2 + lincoef*x
	i := 0
	for argidx := range args {
		if i == len(q.elems) || q.elems[i].Idx1 > argidx {
			// no quadratic term starts at this child
			if q.lincoefs != nil {
				r = interval.Add(infinity, r, interval.MulScalar(infinity, args[argidx], q.lincoefs[argidx]))
			}
			continue
		}

		sqrcoef := 0.0
		lincoef := interval.Point(0)
		if q.lincoefs != nil {
			lincoef = interval.Point(q.lincoefs[argidx])
		}
		for i < len(q.elems) && q.elems[i].Idx1 == argidx {
			if q.elems[i].Idx2 == argidx {
				sqrcoef += q.elems[i].Coef
			} else {
				tmp := interval.MulScalar(infinity, args[q.elems[i].Idx2], q.elems[i].Coef)
				lincoef = interval.Add(infinity, lincoef, tmp)
			}
			i++
		}
		r = interval.Add(infinity, r, interval.Quad(infinity, sqrcoef, lincoef, args[argidx]))
	}
	return r
}

func intevalPolynomial(infinity float64, e *Expr, args []interval.Interval, _ []interval.Interval, _ []float64) interval.Interval {
	p := e.poly
	r := interval.Point(p.Constant)
	for _, m := range p.monomials {
		mval := interval.Point(m.Coef)
		for j := 0; j < m.NFactors(); j++ {
			mval = interval.Mul(infinity, mval, interval.PowerScalar(infinity, args[m.ChildIdx(j)], m.Exponent(j)))
		}
		r = interval.Add(infinity, r, mval)
	}
	return r
}

// curvature handlers

func curvDefault(float64, *Expr, []interval.Interval, []curvature.Curvature) curvature.Curvature {
	return curvature.Unknown
}

func curvLeaf(float64, *Expr, []interval.Interval, []curvature.Curvature) curvature.Curvature {
	return curvature.Linear
}

func curvPlus(_ float64, _ *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	return curvature.Add(argcurv[0], argcurv[1])
}

func curvMinus(_ float64, _ *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	return curvature.Add(argcurv[0], curvature.Negate(argcurv[1]))
}

func curvMul(_ float64, _ *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	// the product of two non-constant factors admits no classification
	switch {
	case argbounds[1].IsPoint():
		return curvature.MultiplyByConstant(argbounds[1].Inf, argcurv[0])
	case argbounds[0].IsPoint():
		return curvature.MultiplyByConstant(argbounds[0].Inf, argcurv[1])
	default:
		return curvature.Unknown
	}
}

func curvDiv(_ float64, _ *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	if argbounds[1].IsPoint() {
		// constant denominator: sign decides
		return curvature.MultiplyByConstant(argbounds[1].Inf, argcurv[0])
	}
	if argbounds[0].IsPoint() {
		// c/f is convex on f > 0 when f is concave, concave on f < 0 when f
		// is convex; the sign of c flips either way
		if argbounds[1].Inf >= 0 && argcurv[1].IsConcave() {
			return curvature.MultiplyByConstant(argbounds[0].Inf, curvature.Convex)
		}
		if argbounds[1].Sup <= 0 && argcurv[1].IsConvex() {
			return curvature.MultiplyByConstant(argbounds[0].Inf, curvature.Concave)
		}
		return curvature.Unknown
	}
	return curvature.Unknown
}

func curvSquare(_ float64, _ *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	return curvature.Power(argbounds[0], argcurv[0], 2)
}

func curvSqrt(_ float64, _ *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	// concave of concave, increasing
	if argcurv[0].IsConcave() {
		return curvature.Concave
	}
	return curvature.Unknown
}

func curvRealPower(_ float64, e *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	return curvature.Power(argbounds[0], argcurv[0], e.value)
}

func curvIntPower(_ float64, e *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	return curvature.Power(argbounds[0], argcurv[0], float64(e.intval))
}

func curvSignPower(_ float64, e *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	// signpower mirrors the power function at the origin; classify both
	// half-domains and conjoin
	left := curvature.Linear
	if argbounds[0].Inf < 0 {
		bounds := interval.New(0, -argbounds[0].Inf)
		left = curvature.Negate(curvature.Power(bounds, curvature.Negate(argcurv[0]), e.value))
	}
	right := curvature.Linear
	if argbounds[0].Sup > 0 {
		bounds := interval.New(0, argbounds[0].Sup)
		right = curvature.Power(bounds, argcurv[0], e.value)
	}
	return left & right
}

func curvExp(_ float64, _ *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	// convex of convex, increasing
	if argcurv[0].IsConvex() {
		return curvature.Convex
	}
	return curvature.Unknown
}

func curvLog(_ float64, _ *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	// concave of concave, increasing
	if argcurv[0].IsConcave() {
		return curvature.Concave
	}
	return curvature.Unknown
}

func curvMin(_ float64, _ *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	if argcurv[0].IsConcave() && argcurv[1].IsConcave() {
		return curvature.Concave
	}
	return curvature.Unknown
}

func curvMax(_ float64, _ *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	if argcurv[0].IsConvex() && argcurv[1].IsConvex() {
		return curvature.Convex
	}
	return curvature.Unknown
}

func curvAbs(_ float64, _ *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	switch {
	case argbounds[0].Sup <= 0:
		return curvature.MultiplyByConstant(-1, argcurv[0])
	case argbounds[0].Inf >= 0:
		return argcurv[0]
	case argcurv[0] == curvature.Linear:
		return curvature.Convex
	default:
		return curvature.Unknown
	}
}

func curvSignOp(_ float64, _ *Expr, argbounds []interval.Interval, _ []curvature.Curvature) curvature.Curvature {
	// constant on either side of zero
	if argbounds[0].Sup <= 0 || argbounds[0].Inf >= 0 {
		return curvature.Linear
	}
	return curvature.Unknown
}

func curvSum(_ float64, _ *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	r := curvature.Linear
	for _, c := range argcurv {
		r = curvature.Add(r, c)
	}
	return r
}

func curvProduct(_ float64, _ *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	// at most one non-constant factor is classifiable; the constant factors
	// contribute their sign
	r := curvature.Linear
	hadnonconst := false
	constants := 1.0
	for i := range argcurv {
		if argbounds[i].IsPoint() {
			constants *= argbounds[i].Inf
			continue
		}
		if hadnonconst {
			return curvature.Unknown
		}
		r = argcurv[i]
		hadnonconst = true
	}
	return curvature.MultiplyByConstant(constants, r)
}

func curvLinear(_ float64, e *Expr, _ []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	r := curvature.Linear
	for i, c := range e.linear.coefs {
		r = curvature.Add(r, curvature.MultiplyByConstant(c, argcurv[i]))
	}
	return r
}

func curvQuadratic(_ float64, e *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	q := e.quad
	r := curvature.Linear

	if q.lincoefs != nil {
		for i, c := range q.lincoefs {
			r = curvature.Add(r, curvature.MultiplyByConstant(c, argcurv[i]))
		}
	}

	for _, el := range q.elems {
		if r == curvature.Unknown {
			break
		}
		if el.Coef == 0 {
			continue
		}
		const1 := argbounds[el.Idx1].IsPoint()
		const2 := argbounds[el.Idx2].IsPoint()
		switch {
		case const1 && const2:
			// a product of constants does not change the curvature
		case const1:
			r = curvature.Add(r, curvature.MultiplyByConstant(el.Coef*argbounds[el.Idx1].Inf, argcurv[el.Idx2]))
		case const2:
			r = curvature.Add(r, curvature.MultiplyByConstant(el.Coef*argbounds[el.Idx2].Inf, argcurv[el.Idx1]))
		case el.Idx1 == el.Idx2:
			sq := curvature.Power(argbounds[el.Idx1], argcurv[el.Idx1], 2)
			r = curvature.Add(r, curvature.MultiplyByConstant(el.Coef, sq))
		default:
			// bilinear term in two non-constant children
			r = curvature.Unknown
		}
	}
	return r
}

func curvPolynomial(_ float64, e *Expr, argbounds []interval.Interval, argcurv []curvature.Curvature) curvature.Curvature {
	r := curvature.Linear
	for _, m := range e.poly.monomials {
		if r == curvature.Unknown {
			break
		}
		mc := curvature.Monomial(m.exponents, m.childIdxs, argcurv, argbounds)
		r = curvature.Add(r, curvature.MultiplyByConstant(m.Coef, mc))
	}
	return r
}
