// Package curvature classifies the convexity of algebraic expressions.
//
// A curvature is a pair of flags: one asserting convexity, one asserting
// concavity. Both flags set means the expression is linear (affine); neither
// set means nothing is known. Propagation rules combine child curvatures and
// variable bounds into a conservative classification of the parent: the
// result may be Unknown for an expression that is in fact convex, but never
// the reverse.
package curvature

import (
	"math"

	"github.com/optlang/nlexpr/interval"
)

// Curvature is a conservative convexity classification.
type Curvature uint8

const (
	// Unknown asserts nothing.
	Unknown Curvature = 0
	// Convex asserts convexity.
	Convex Curvature = 1
	// Concave asserts concavity.
	Concave Curvature = 2
	// Linear asserts both convexity and concavity.
	Linear Curvature = Convex | Concave
)

// String returns the lowercase name of c.
func (c Curvature) String() string {
	switch c {
	case Convex:
		return "convex"
	case Concave:
		return "concave"
	case Linear:
		return "linear"
	default:
		return "unknown"
	}
}

// IsConvex reports whether c asserts convexity.
func (c Curvature) IsConvex() bool { return c&Convex != 0 }

// IsConcave reports whether c asserts concavity.
func (c Curvature) IsConcave() bool { return c&Concave != 0 }

// IsLinear reports whether c asserts both convexity and concavity.
func (c Curvature) IsLinear() bool { return c == Linear }

// Add returns the curvature of a sum of a c1-shaped and a c2-shaped term:
// the conjunction of the assertions both operands make.
func Add(c1, c2 Curvature) Curvature {
	return c1 & c2
}

// Negate returns the curvature of the negation of a c-shaped expression.
func Negate(c Curvature) Curvature {
	switch c {
	case Convex:
		return Concave
	case Concave:
		return Convex
	default:
		// Linear and Unknown are their own negations.
		return c
	}
}

// MultiplyByConstant returns the curvature of factor times a c-shaped
// expression.
func MultiplyByConstant(factor float64, c Curvature) Curvature {
	switch {
	case factor == 0:
		return Linear
	case factor > 0:
		return c
	default:
		return Negate(c)
	}
}

func isInteger(x float64) bool {
	return x == math.Floor(x)
}

// Power returns the curvature of base^exponent, where the base expression has
// curvature basecurv and takes values in basebounds.
//
// The classification follows the sign of the second derivative
//
//	(base^e)'' = e*( (e-1)*base^(e-2)*base'^2 + base^(e-1)*base'' )
//
// over the given bounds. A fractional exponent restricts the bounds to their
// non-negative part. Bounds straddling zero are split at zero and the results
// of both halves are conjoined, except for negative exponents, whose
// singularity at zero defeats any classification.
func Power(basebounds interval.Interval, basecurv Curvature, exponent float64) Curvature {
	if exponent == 0 {
		return Linear
	}
	if exponent == 1 {
		return basecurv
	}

	expisint := isInteger(exponent)

	if !expisint && basebounds.Inf < 0 {
		basebounds.Inf = 0
		if basebounds.Sup < 0 {
			return Linear
		}
	}

	if basebounds.Inf < 0 && basebounds.Sup > 0 {
		if exponent < 0 {
			return Unknown
		}
		left := Power(interval.New(basebounds.Inf, 0), basecurv, exponent)
		right := Power(interval.New(0, basebounds.Sup), basecurv, exponent)
		return left & right
	}

	switch basecurv {
	case Linear:
		sign := exponent * (exponent - 1)
		if basebounds.Inf < 0 && int64(exponent)%2 != 0 {
			sign = -sign
		}
		if sign > 0 {
			return Convex
		}
		return Concave

	case Convex:
		if basebounds.Sup <= 0 && exponent < 0 && expisint {
			if int64(exponent)%2 == 0 {
				return Convex
			}
			return Concave
		}
		if basebounds.Inf >= 0 && exponent > 1 {
			return Convex
		}
		return Unknown

	case Concave:
		if basebounds.Sup <= 0 && exponent > 1 && expisint {
			if int64(exponent)%2 == 0 {
				return Convex
			}
			return Concave
		}
		if basebounds.Inf >= 0 && exponent < 1 {
			if exponent < 0 {
				return Convex
			}
			return Concave
		}
		return Unknown
	}

	return Unknown
}

// Monomial returns the curvature of a product of powers
//
//	prod_j factor_{idxs[j]} ^ exponents[j]
//
// where factorcurv and factorbounds describe the factor expressions. A nil
// idxs selects factors 0..len(exponents)-1 in order; a nil exponents means
// all exponents are 1.
//
// The classification uses the convexity conditions of Maranas and Floudas for
// generalized polynomials over the positive orthant. Factors with negative
// bounds are flipped, tracking the resulting sign of the product; factors
// with unknown curvature or bounds straddling zero defeat the analysis.
func Monomial(exponents []float64, idxs []int, factorcurv []Curvature, factorbounds []interval.Interval) Curvature {
	nfactors := len(factorcurv)
	if idxs != nil {
		nfactors = len(idxs)
	} else if exponents != nil {
		nfactors = len(exponents)
	}

	if nfactors == 0 {
		return Linear
	}

	if nfactors == 1 {
		f := 0
		if idxs != nil {
			f = idxs[0]
		}
		e := 1.0
		if exponents != nil {
			e = exponents[0]
		}
		return Power(factorbounds[f], factorcurv[f], e)
	}

	mult := 1.0
	nnegative := 0
	npositive := 0
	sum := 0.0
	expcurvpos := true // each factor^exponent convex so far
	expcurvneg := true // each factor^exponent concave so far

	for j := 0; j < nfactors; j++ {
		f := j
		if idxs != nil {
			f = idxs[j]
		}
		if factorcurv[f] == Unknown {
			return Unknown
		}
		if factorbounds[f].Inf < 0 && factorbounds[f].Sup > 0 {
			return Unknown
		}

		e := 1.0
		if exponents != nil {
			e = exponents[j]
		}
		fbounds := factorbounds[f]
		fcurv := factorcurv[f]

		if fbounds.Inf < 0 {
			// x^e = (-1)^e * (-x)^e for a negative factor
			if !isInteger(e) {
				return Unknown
			}
			if int64(e)%2 != 0 {
				mult = -mult
			}
			fbounds = interval.New(-factorbounds[f].Sup, -factorbounds[f].Inf)
			fcurv = Negate(fcurv)
		}

		if e < 0 {
			nnegative++
		} else {
			npositive++
		}
		sum += e

		fcurv = MultiplyByConstant(e, fcurv)
		if !fcurv.IsConvex() {
			expcurvpos = false
		}
		if !fcurv.IsConcave() {
			expcurvneg = false
		}
	}

	const eps = 1e-9

	curv := Unknown
	switch {
	case nnegative == nfactors && expcurvpos:
		curv = Convex
	case nnegative == nfactors-1 && sum >= 1-eps && expcurvpos:
		curv = Convex
	case npositive == nfactors && sum <= 1+eps && expcurvneg:
		curv = Concave
	}

	return MultiplyByConstant(mult, curv)
}
