// Package interval implements interval arithmetic over float64 bounds.
//
// Every operation is sound: the result interval contains the exact image of
// the operation over the operand intervals. Bounds at or beyond a
// caller-chosen infinity value are treated as unbounded, so callers embed
// their own notion of infinity (for example 1e20) instead of relying on IEEE
// infinities. Operations do not use directed rounding; results are sound up
// to floating-point evaluation of the bound formulas.
package interval

import "math"

// Interval is a closed interval [Inf, Sup]. An interval with Inf > Sup is
// empty.
type Interval struct {
	Inf float64
	Sup float64
}

// Point returns the degenerate interval [x, x].
func Point(x float64) Interval {
	return Interval{Inf: x, Sup: x}
}

// New returns the interval [inf, sup].
func New(inf, sup float64) Interval {
	return Interval{Inf: inf, Sup: sup}
}

// Entire returns the interval [-infinity, infinity].
func Entire(infinity float64) Interval {
	return Interval{Inf: -infinity, Sup: infinity}
}

// Empty returns an empty interval.
func Empty() Interval {
	return Interval{Inf: 1, Sup: -1}
}

// IsEmpty reports whether a contains no points.
func (a Interval) IsEmpty() bool {
	return a.Inf > a.Sup
}

// IsEntire reports whether a is unbounded on both sides with respect to
// infinity.
func (a Interval) IsEntire(infinity float64) bool {
	return a.Inf <= -infinity && a.Sup >= infinity
}

// IsPoint reports whether a contains exactly one value.
func (a Interval) IsPoint() bool {
	return a.Inf == a.Sup
}

// Contains reports whether x lies in a.
func (a Interval) Contains(x float64) bool {
	return a.Inf <= x && x <= a.Sup
}

// clamp maps bounds beyond infinity (including IEEE infinities and NaN from
// indeterminate bound arithmetic) back onto the sentinel range.
func clamp(infinity float64, a Interval) Interval {
	if a.Inf < -infinity || math.IsNaN(a.Inf) {
		a.Inf = -infinity
	}
	if a.Sup > infinity || math.IsNaN(a.Sup) {
		a.Sup = infinity
	}
	return a
}

// Add returns a + b.
func Add(infinity float64, a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	r := Interval{}
	if a.Inf <= -infinity || b.Inf <= -infinity {
		r.Inf = -infinity
	} else {
		r.Inf = a.Inf + b.Inf
	}
	if a.Sup >= infinity || b.Sup >= infinity {
		r.Sup = infinity
	} else {
		r.Sup = a.Sup + b.Sup
	}
	return clamp(infinity, r)
}

// AddScalar returns a + s.
func AddScalar(infinity float64, a Interval, s float64) Interval {
	return Add(infinity, a, Point(s))
}

// Sub returns a - b.
func Sub(infinity float64, a, b Interval) Interval {
	return Add(infinity, a, Negate(b))
}

// Negate returns -a.
func Negate(a Interval) Interval {
	if a.IsEmpty() {
		return Empty()
	}
	return Interval{Inf: -a.Sup, Sup: -a.Inf}
}

// mulBound multiplies two bounds with the convention 0 * unbounded = 0, which
// keeps products of degenerate zero intervals with unbounded intervals sound.
func mulBound(infinity, x, y float64) float64 {
	if x == 0 || y == 0 {
		return 0
	}
	if x <= -infinity || x >= infinity || y <= -infinity || y >= infinity {
		if (x > 0) == (y > 0) {
			return infinity
		}
		return -infinity
	}
	return x * y
}

// Mul returns a * b.
func Mul(infinity float64, a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	c1 := mulBound(infinity, a.Inf, b.Inf)
	c2 := mulBound(infinity, a.Inf, b.Sup)
	c3 := mulBound(infinity, a.Sup, b.Inf)
	c4 := mulBound(infinity, a.Sup, b.Sup)
	r := Interval{
		Inf: math.Min(math.Min(c1, c2), math.Min(c3, c4)),
		Sup: math.Max(math.Max(c1, c2), math.Max(c3, c4)),
	}
	return clamp(infinity, r)
}

// MulScalar returns s * a.
func MulScalar(infinity float64, a Interval, s float64) Interval {
	return Mul(infinity, a, Point(s))
}

// Div returns a / b. If b contains zero the result is the entire interval,
// unless a is the degenerate zero interval.
func Div(infinity float64, a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	if b.Contains(0) {
		if a.Inf == 0 && a.Sup == 0 {
			return a
		}
		return Entire(infinity)
	}
	recip := Interval{Inf: 1 / b.Sup, Sup: 1 / b.Inf}
	if b.Sup >= infinity {
		recip.Inf = 0
	}
	if b.Inf <= -infinity {
		recip.Sup = 0
	}
	return Mul(infinity, a, recip)
}

// Square returns a^2.
func Square(infinity float64, a Interval) Interval {
	if a.IsEmpty() {
		return Empty()
	}
	abs := Abs(infinity, a)
	return clamp(infinity, Interval{
		Inf: mulBound(infinity, abs.Inf, abs.Inf),
		Sup: mulBound(infinity, abs.Sup, abs.Sup),
	})
}

// SquareRoot returns sqrt(a), restricted to the non-negative part of a.
// The result is empty if a contains no non-negative value.
func SquareRoot(infinity float64, a Interval) Interval {
	if a.IsEmpty() || a.Sup < 0 {
		return Empty()
	}
	inf := a.Inf
	if inf < 0 {
		inf = 0
	}
	r := Interval{Inf: math.Sqrt(inf), Sup: math.Sqrt(a.Sup)}
	if a.Sup >= infinity {
		r.Sup = infinity
	}
	return clamp(infinity, r)
}

// powBound evaluates x^p for a single bound, honoring the infinity sentinel.
func powBound(infinity, x, p float64) float64 {
	if x >= infinity {
		x = math.Inf(1)
	} else if x <= -infinity {
		x = math.Inf(-1)
	}
	return math.Pow(x, p)
}

// PowerScalar returns a^p for a scalar exponent p. For fractional p the base
// is restricted to its non-negative part; the result is empty if no
// non-negative value remains.
func PowerScalar(infinity float64, a Interval, p float64) Interval {
	if a.IsEmpty() {
		return Empty()
	}
	if p == 0 {
		return Point(1)
	}
	if p == 1 {
		return a
	}
	isint := p == math.Floor(p)
	if !isint {
		if a.Sup < 0 {
			return Empty()
		}
		if a.Inf < 0 {
			a.Inf = 0
		}
	}
	if p < 0 {
		pos := PowerScalar(infinity, a, -p)
		return Div(infinity, Point(1), pos)
	}
	if isint && int64(p)%2 == 0 {
		// even power: symmetric around zero
		abs := Abs(infinity, a)
		return clamp(infinity, Interval{
			Inf: powBound(infinity, abs.Inf, p),
			Sup: powBound(infinity, abs.Sup, p),
		})
	}
	// odd integer or fractional positive exponent: monotone increasing
	return clamp(infinity, Interval{
		Inf: powBound(infinity, a.Inf, p),
		Sup: powBound(infinity, a.Sup, p),
	})
}

// signPowBound evaluates sign(x)*|x|^p for a single bound.
func signPowBound(infinity, x, p float64) float64 {
	if x >= infinity {
		return math.Inf(1)
	}
	if x <= -infinity {
		return math.Inf(-1)
	}
	if x < 0 {
		return -math.Pow(-x, p)
	}
	return math.Pow(x, p)
}

// SignPowerScalar returns sign(a)*|a|^p for a scalar exponent p > 0. The
// function is monotone increasing, so the result follows from the bounds.
func SignPowerScalar(infinity float64, a Interval, p float64) Interval {
	if a.IsEmpty() {
		return Empty()
	}
	if p == 1 {
		return a
	}
	return clamp(infinity, Interval{
		Inf: signPowBound(infinity, a.Inf, p),
		Sup: signPowBound(infinity, a.Sup, p),
	})
}

// Exp returns e^a.
func Exp(infinity float64, a Interval) Interval {
	if a.IsEmpty() {
		return Empty()
	}
	r := Interval{}
	if a.Inf <= -infinity {
		r.Inf = 0
	} else {
		r.Inf = math.Exp(a.Inf)
	}
	if a.Sup >= infinity {
		r.Sup = infinity
	} else {
		r.Sup = math.Exp(a.Sup)
	}
	return clamp(infinity, r)
}

// Log returns the natural logarithm of a, restricted to the positive part of
// a. The result is empty if a contains no positive value.
func Log(infinity float64, a Interval) Interval {
	if a.IsEmpty() || a.Sup <= 0 {
		return Empty()
	}
	r := Interval{}
	if a.Inf <= 0 {
		r.Inf = -infinity
	} else {
		r.Inf = math.Log(a.Inf)
	}
	if a.Sup >= infinity {
		r.Sup = infinity
	} else {
		r.Sup = math.Log(a.Sup)
	}
	return clamp(infinity, r)
}

// Min returns the elementwise minimum of a and b.
func Min(infinity float64, a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	return clamp(infinity, Interval{
		Inf: math.Min(a.Inf, b.Inf),
		Sup: math.Min(a.Sup, b.Sup),
	})
}

// Max returns the elementwise maximum of a and b.
func Max(infinity float64, a, b Interval) Interval {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	return clamp(infinity, Interval{
		Inf: math.Max(a.Inf, b.Inf),
		Sup: math.Max(a.Sup, b.Sup),
	})
}

// Abs returns |a|.
func Abs(infinity float64, a Interval) Interval {
	if a.IsEmpty() {
		return Empty()
	}
	switch {
	case a.Inf >= 0:
		return a
	case a.Sup <= 0:
		return Negate(a)
	default:
		return clamp(infinity, Interval{Inf: 0, Sup: math.Max(-a.Inf, a.Sup)})
	}
}

// Sign returns the sign of a, with bounds in {-1, 1}. Zero counts as
// positive, matching the point-evaluation convention sign(0) = 1.
func Sign(infinity float64, a Interval) Interval {
	if a.IsEmpty() {
		return Empty()
	}
	sign := func(x float64) float64 {
		if x < 0 {
			return -1
		}
		return 1
	}
	return Interval{Inf: sign(a.Inf), Sup: sign(a.Sup)}
}

// Quad returns sqrcoef*x^2 + lincoef*x for x ranging over xbnds and the
// linear coefficient ranging over lincoef. For bounded operands the result is
// the exact range; unbounded operands fall back to composing Square and Mul.
func Quad(infinity float64, sqrcoef float64, lincoef, xbnds Interval) Interval {
	if lincoef.IsEmpty() || xbnds.IsEmpty() {
		return Empty()
	}
	if sqrcoef == 0 {
		return Mul(infinity, lincoef, xbnds)
	}
	if xbnds.Inf <= -infinity || xbnds.Sup >= infinity ||
		lincoef.Inf <= -infinity || lincoef.Sup >= infinity {
		sq := MulScalar(infinity, Square(infinity, xbnds), sqrcoef)
		return Add(infinity, sq, Mul(infinity, lincoef, xbnds))
	}
	// q(x) = a*x^2 + b*x is linear in b, so extremes occur at the b bounds;
	// for fixed b they occur at the x bounds or at the vertex -b/(2a).
	lo := math.Inf(1)
	hi := math.Inf(-1)
	consider := func(b, x float64) {
		v := sqrcoef*x*x + b*x
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for _, b := range [2]float64{lincoef.Inf, lincoef.Sup} {
		consider(b, xbnds.Inf)
		consider(b, xbnds.Sup)
		if vx := -b / (2 * sqrcoef); xbnds.Contains(vx) {
			consider(b, vx)
		}
	}
	return clamp(infinity, Interval{Inf: lo, Sup: hi})
}

// ScalprodScalars returns the scalar product sum_i coefs[i]*vals[i] of scalar
// coefficients with interval values. The slices must have equal length.
func ScalprodScalars(infinity float64, coefs []float64, vals []Interval) Interval {
	r := Point(0)
	for i, c := range coefs {
		r = Add(infinity, r, MulScalar(infinity, vals[i], c))
		if r.IsEmpty() || r.IsEntire(infinity) {
			return r
		}
	}
	return r
}
