package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonomialDefaults(t *testing.T) {
	m := NewMonomial(2, nil, []float64{3, 1})
	require.Equal(t, 2, m.NFactors())
	assert.Equal(t, 0, m.ChildIdx(0))
	assert.Equal(t, 1, m.ChildIdx(1))

	m = NewMonomial(1, []int{4, 2}, nil)
	require.Equal(t, 2, m.NFactors())
	assert.Equal(t, 1.0, m.Exponent(0))
	assert.Equal(t, 1.0, m.Exponent(1))
}

func TestMonomialMergeFactors(t *testing.T) {
	m := NewMonomial(3, []int{1, 0, 1}, []float64{2, 1.5, -2})
	m.MergeFactors(1e-9)

	require.Equal(t, 1, m.NFactors())
	assert.Equal(t, 0, m.ChildIdx(0))
	assert.Equal(t, 1.5, m.Exponent(0))

	// exponents summing to nearly an integer are rounded
	m = NewMonomial(1, []int{0, 0}, []float64{1.5, 0.5 + 1e-12})
	m.MergeFactors(1e-9)
	require.Equal(t, 1, m.NFactors())
	assert.Equal(t, 2.0, m.Exponent(0))

	// coefficient snaps to unit
	m = NewMonomial(1+1e-12, []int{0}, []float64{1})
	m.MergeFactors(1e-9)
	assert.Equal(t, 1.0, m.Coef)
}

func TestMonomialPower(t *testing.T) {
	m := NewMonomial(2, []int{0, 1}, []float64{1, 3})
	m.Power(2)
	assert.Equal(t, 4.0, m.Coef)
	assert.Equal(t, 2.0, m.Exponent(0))
	assert.Equal(t, 6.0, m.Exponent(1))

	m.Power(0)
	assert.Equal(t, 1.0, m.Coef)
	assert.Equal(t, 0, m.NFactors())

	zero := NewMonomial(0, []int{0}, []float64{1})
	zero.Power(0)
	assert.Equal(t, 0.0, zero.Coef)
}

func TestMonomialMultiplyBy(t *testing.T) {
	m := NewMonomial(2, []int{0}, []float64{1})
	f := NewMonomial(3, []int{0, 1}, []float64{1, 2})
	m.MultiplyBy(f, nil)

	assert.Equal(t, 6.0, m.Coef)
	m.MergeFactors(0)
	require.Equal(t, 2, m.NFactors())
	assert.Equal(t, 2.0, m.Exponent(0))
	assert.Equal(t, 2.0, m.Exponent(1))

	// child map translates the factor's indices
	m = NewMonomial(1, []int{0}, []float64{1})
	f = NewMonomial(1, []int{0}, []float64{1})
	m.MultiplyBy(f, []int{3})
	assert.Equal(t, 3, m.ChildIdx(1))

	// zero factor annihilates
	m.MultiplyBy(NewMonomial(0, []int{1}, []float64{1}), nil)
	assert.Equal(t, 0.0, m.Coef)
	assert.Equal(t, 0, m.NFactors())
}

func TestMonomialFindFactor(t *testing.T) {
	m := NewMonomial(1, []int{5, 1, 3}, []float64{1, 2, 3})
	pos, found := m.FindFactor(3)
	require.True(t, found)
	assert.Equal(t, 3, m.ChildIdx(pos))

	_, found = m.FindFactor(2)
	assert.False(t, found)
}

func TestMonomialsEqual(t *testing.T) {
	m1 := NewMonomial(2, []int{1, 0}, []float64{3, 1})
	m2 := NewMonomial(2, []int{0, 1}, []float64{1, 3})
	assert.True(t, MonomialsEqual(m1, m2, 1e-9))

	m3 := NewMonomial(2, []int{0, 1}, []float64{1, 2})
	assert.False(t, MonomialsEqual(m1, m3, 1e-9))

	m4 := NewMonomial(2.5, []int{0, 1}, []float64{1, 3})
	assert.False(t, MonomialsEqual(m1, m4, 1e-9))
}

func TestPolynomialMergeMonomials(t *testing.T) {
	p := &Polynomial{Constant: 2}
	p.AddMonomials([]*Monomial{
		NewMonomial(3, []int{0, 1}, []float64{1, 1}),
		NewMonomial(1, []int{1, 0}, []float64{1, 1}),
		NewMonomial(5, nil, nil),
		NewMonomial(1e-15, []int{2}, []float64{1}),
	}, false)
	p.MergeMonomials(1e-9, true)

	assert.Equal(t, 7.0, p.Constant)
	require.Len(t, p.Monomials(), 1)
	m := p.Monomials()[0]
	assert.Equal(t, 4.0, m.Coef)
	require.Equal(t, 2, m.NFactors())
	assert.Equal(t, 0, m.ChildIdx(0))
	assert.Equal(t, 1, m.ChildIdx(1))
}

func TestPolynomialMultiplyByConstant(t *testing.T) {
	p := &Polynomial{Constant: 1}
	p.AddMonomials([]*Monomial{NewMonomial(2, []int{0}, []float64{1})}, false)

	p.MultiplyByConstant(3)
	assert.Equal(t, 3.0, p.Constant)
	assert.Equal(t, 6.0, p.Monomials()[0].Coef)

	p.MultiplyByConstant(0)
	assert.Equal(t, 0.0, p.Constant)
	assert.Empty(t, p.Monomials())
}

func TestPolynomialMultiplyByMonomial(t *testing.T) {
	// (1 + 2 x0) * 3 x1  =  3 x1 + 6 x0 x1
	p := &Polynomial{Constant: 1}
	p.AddMonomials([]*Monomial{NewMonomial(2, []int{0}, []float64{1})}, false)
	p.MultiplyByMonomial(NewMonomial(3, []int{1}, []float64{1}), nil)
	p.MergeMonomials(1e-9, true)

	assert.Equal(t, 0.0, p.Constant)
	require.Len(t, p.Monomials(), 2)
	assert.Equal(t, 6.0, p.Monomials()[0].Coef)
	assert.Equal(t, 2, p.Monomials()[0].NFactors())
	assert.Equal(t, 3.0, p.Monomials()[1].Coef)
	assert.Equal(t, 1, p.Monomials()[1].ChildIdx(0))
}

func TestPolynomialMultiplyByPolynomial(t *testing.T) {
	// (1 + x0) * (1 + x1)  =  1 + x0 + x1 + x0 x1
	p := &Polynomial{Constant: 1}
	p.AddMonomials([]*Monomial{NewMonomial(1, []int{0}, []float64{1})}, false)
	factor := &Polynomial{Constant: 1}
	factor.AddMonomials([]*Monomial{NewMonomial(1, []int{1}, []float64{1})}, false)

	p.MultiplyByPolynomial(factor, nil)
	p.MergeMonomials(1e-9, true)

	assert.Equal(t, 1.0, p.Constant)
	require.Len(t, p.Monomials(), 3)
	assert.Equal(t, 0, p.Monomials()[0].ChildIdx(0))
	assert.Equal(t, 2, p.Monomials()[1].NFactors())
	assert.Equal(t, 1, p.Monomials()[2].ChildIdx(0))
}

func TestPolynomialPower(t *testing.T) {
	// (1 + x0)^2 = 1 + 2 x0 + x0^2
	p := &Polynomial{Constant: 1}
	p.AddMonomials([]*Monomial{NewMonomial(1, []int{0}, []float64{1})}, false)
	p.Power(2)

	assert.Equal(t, 1.0, p.Constant)
	require.Len(t, p.Monomials(), 2)
	assert.Equal(t, 2.0, p.Monomials()[0].Coef)
	assert.Equal(t, 1.0, p.Monomials()[0].Exponent(0))
	assert.Equal(t, 1.0, p.Monomials()[1].Coef)
	assert.Equal(t, 2.0, p.Monomials()[1].Exponent(0))

	// constant polynomial
	c := &Polynomial{Constant: 3}
	c.Power(2)
	assert.Equal(t, 9.0, c.Constant)

	// x^0 = 1, but 0^0 keeps the zero polynomial
	one := &Polynomial{Constant: 5}
	one.Power(0)
	assert.Equal(t, 1.0, one.Constant)
	zero := &Polynomial{}
	zero.Power(0)
	assert.Equal(t, 0.0, zero.Constant)

	// single monomial takes the monomial power, negative exponents included
	m := &Polynomial{}
	m.AddMonomials([]*Monomial{NewMonomial(2, []int{0}, []float64{1})}, false)
	m.Power(-1)
	assert.Equal(t, 0.5, m.Monomials()[0].Coef)
	assert.Equal(t, -1.0, m.Monomials()[0].Exponent(0))
}

func TestMergeFactorsIdempotent(t *testing.T) {
	m := NewMonomial(2, []int{1, 0, 1, 2}, []float64{2, 1.5, -2, 1e-12})
	m.MergeFactors(1e-9)
	snap := m.Copy()
	m.MergeFactors(1e-9)
	assert.True(t, MonomialsEqual(m, snap, 0))
}

func TestMergeMonomialsIdempotent(t *testing.T) {
	p := &Polynomial{Constant: 1}
	p.AddMonomials([]*Monomial{
		NewMonomial(3, []int{0, 1}, []float64{1, 1}),
		NewMonomial(1, []int{1, 0}, []float64{1, 1}),
		NewMonomial(4, nil, nil),
		NewMonomial(1e-15, []int{2}, []float64{1}),
	}, false)
	p.MergeMonomials(1e-9, true)

	snap := p.Copy()
	p.MergeMonomials(1e-9, true)

	assert.Equal(t, snap.Constant, p.Constant)
	require.Equal(t, len(snap.Monomials()), len(p.Monomials()))
	for i := range p.Monomials() {
		assert.True(t, MonomialsEqual(p.Monomials()[i], snap.Monomials()[i], 0))
	}
}

func TestMergeMonomialsPreservesEvaluation(t *testing.T) {
	build := func() []*Monomial {
		return []*Monomial{
			NewMonomial(3, []int{0, 1}, []float64{1, 1}),
			NewMonomial(1, []int{1, 0}, []float64{1, 1}),
			NewMonomial(-2, []int{0, 0}, []float64{1, 1}),
			NewMonomial(5, nil, nil),
		}
	}
	plain := mustExpr(NewPolynomial(2, build(), NewVar(0), NewVar(1)))
	merged := mustExpr(NewPolynomial(2, build(), NewVar(0), NewVar(1)))
	merged.Polynomial().MergeMonomials(1e-9, true)

	for _, vals := range [][]float64{{3, -2}, {0, 0}, {-1.5, 0.25}} {
		assert.InDelta(t, plain.Eval(vals, nil), merged.Eval(vals, nil), 1e-9)
	}
}

func TestMultiplyByIdentityMonomial(t *testing.T) {
	m := NewMonomial(2, []int{0, 1}, []float64{1, 3})
	snap := m.Copy()
	m.MultiplyBy(NewMonomial(1, nil, nil), nil)
	assert.True(t, MonomialsEqual(m, snap, 0))

	p := &Polynomial{Constant: 2}
	p.AddMonomials([]*Monomial{NewMonomial(3, []int{0}, []float64{2})}, false)
	psnap := p.Copy()
	p.MultiplyByMonomial(NewMonomial(1, nil, nil), nil)
	assert.Equal(t, psnap.Constant, p.Constant)
	require.Len(t, p.Monomials(), 1)
	assert.True(t, MonomialsEqual(p.Monomials()[0], psnap.Monomials()[0], 0))
}

func TestMonomialPowerComposes(t *testing.T) {
	m1 := NewMonomial(2, []int{0, 1}, []float64{1, 2})
	m2 := m1.Copy()
	m1.Power(2)
	m1.Power(3)
	m2.Power(6)
	assert.True(t, MonomialsEqual(m1, m2, 1e-12))
}

func TestPolynomialCopy(t *testing.T) {
	p := &Polynomial{Constant: 2}
	p.AddMonomials([]*Monomial{NewMonomial(3, []int{0}, []float64{2})}, false)

	c := p.Copy()
	c.Monomials()[0].Coef = 7
	c.Constant = 9

	assert.Equal(t, 3.0, p.Monomials()[0].Coef)
	assert.Equal(t, 2.0, p.Constant)
}
