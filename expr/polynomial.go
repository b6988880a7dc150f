package expr

import (
	"fmt"
	"math"
	"sort"
)

// growSize computes the capacity for a dynamically growing array so that
// repeated growth produces the same sequence of sizes regardless of the
// increments requested.
func growSize(num int) int {
	size := 4
	for size < num {
		size = int(1.2*float64(size) + 4)
	}
	return size
}

// Monomial is a product of powers of expression children,
//
//	Coef * prod_j child[childIdxs[j]]^exponents[j],
//
// used as a summand of a Polynomial.
type Monomial struct {
	Coef float64

	childIdxs []int
	exponents []float64
	sorted    bool
}

// NewMonomial returns a monomial with the given coefficient and factors. A
// nil childIdxs selects children 0..len(exponents)-1; a nil exponents means
// all exponents are 1. Both slices are copied.
func NewMonomial(coef float64, childIdxs []int, exponents []float64) *Monomial {
	n := len(childIdxs)
	if childIdxs == nil {
		n = len(exponents)
	}
	m := &Monomial{
		Coef:      coef,
		childIdxs: make([]int, n),
		exponents: make([]float64, n),
		sorted:    n <= 1,
	}
	for j := 0; j < n; j++ {
		if childIdxs != nil {
			m.childIdxs[j] = childIdxs[j]
		} else {
			m.childIdxs[j] = j
		}
		if exponents != nil {
			m.exponents[j] = exponents[j]
		} else {
			m.exponents[j] = 1
		}
	}
	return m
}

// NFactors returns the number of factors.
func (m *Monomial) NFactors() int { return len(m.childIdxs) }

// ChildIdx returns the child index of the j-th factor.
func (m *Monomial) ChildIdx(j int) int { return m.childIdxs[j] }

// Exponent returns the exponent of the j-th factor.
func (m *Monomial) Exponent(j int) float64 { return m.exponents[j] }

// Copy returns a deep copy of the monomial.
func (m *Monomial) Copy() *Monomial {
	return &Monomial{
		Coef:      m.Coef,
		childIdxs: append([]int(nil), m.childIdxs...),
		exponents: append([]float64(nil), m.exponents...),
		sorted:    m.sorted,
	}
}

// SortFactors orders the factors by ascending child index.
func (m *Monomial) SortFactors() {
	if m.sorted {
		return
	}
	sort.Sort(&factorSorter{m})
	m.sorted = true
}

type factorSorter struct{ m *Monomial }

func (s *factorSorter) Len() int { return len(s.m.childIdxs) }
func (s *factorSorter) Less(i, j int) bool {
	return s.m.childIdxs[i] < s.m.childIdxs[j]
}
func (s *factorSorter) Swap(i, j int) {
	m := s.m
	m.childIdxs[i], m.childIdxs[j] = m.childIdxs[j], m.childIdxs[i]
	m.exponents[i], m.exponents[j] = m.exponents[j], m.exponents[i]
}

// AddFactors appends factors to the monomial. The slices must have equal
// length and are copied.
func (m *Monomial) AddFactors(childIdxs []int, exponents []float64) {
	if len(childIdxs) == 0 {
		return
	}
	need := len(m.childIdxs) + len(childIdxs)
	if need > cap(m.childIdxs) {
		size := growSize(need)
		idxs := make([]int, len(m.childIdxs), size)
		exps := make([]float64, len(m.exponents), size)
		copy(idxs, m.childIdxs)
		copy(exps, m.exponents)
		m.childIdxs, m.exponents = idxs, exps
	}
	m.childIdxs = append(m.childIdxs, childIdxs...)
	m.exponents = append(m.exponents, exponents...)
	m.sorted = len(m.childIdxs) <= 1
}

// MergeFactors sorts the factors and merges those referencing the same child
// by adding their exponents. Exponents within eps of zero eliminate their
// factor; exponents within eps of an integer are rounded; a coefficient
// within eps of 1 or -1 snaps to it.
func (m *Monomial) MergeFactors(eps float64) {
	m.SortFactors()

	out := 0
	for i := 0; i < len(m.childIdxs); {
		idx := m.childIdxs[i]
		exp := m.exponents[i]
		for i++; i < len(m.childIdxs) && m.childIdxs[i] == idx; i++ {
			exp += m.exponents[i]
		}
		if epsZero(exp, eps) {
			continue
		}
		if r := math.Round(exp); epsEq(exp, r, eps) {
			exp = r
		}
		m.childIdxs[out] = idx
		m.exponents[out] = exp
		out++
	}
	m.childIdxs = m.childIdxs[:out]
	m.exponents = m.exponents[:out]

	if epsEq(m.Coef, 1, eps) {
		m.Coef = 1
	} else if epsEq(m.Coef, -1, eps) {
		m.Coef = -1
	}
}

// MultiplyBy multiplies the monomial by factor, appending the factor's
// factors. childmap, if non-nil, translates the factor's child indices into
// the monomial's child space.
func (m *Monomial) MultiplyBy(factor *Monomial, childmap []int) {
	if factor.Coef == 0 {
		m.Coef = 0
		m.childIdxs = m.childIdxs[:0]
		m.exponents = m.exponents[:0]
		return
	}
	nold := len(m.childIdxs)
	m.AddFactors(factor.childIdxs, factor.exponents)
	if childmap != nil {
		for i := nold; i < len(m.childIdxs); i++ {
			m.childIdxs[i] = childmap[m.childIdxs[i]]
		}
	}
	m.Coef *= factor.Coef
}

// Power replaces the monomial by its exponent-th power for an integer
// exponent. The zeroth power of the zero monomial stays zero.
func (m *Monomial) Power(exponent int) {
	if exponent == 1 {
		return
	}
	if exponent == 0 {
		if m.Coef != 0 {
			m.Coef = 1
		}
		m.childIdxs = m.childIdxs[:0]
		m.exponents = m.exponents[:0]
		return
	}
	m.Coef = math.Pow(m.Coef, float64(exponent))
	for j := range m.exponents {
		m.exponents[j] *= float64(exponent)
	}
}

// FindFactor returns the position of the factor referencing childidx after
// sorting the factors. With unmerged factors the position of one of the
// matching factors is returned.
func (m *Monomial) FindFactor(childidx int) (int, bool) {
	if len(m.childIdxs) == 0 {
		return 0, false
	}
	m.SortFactors()
	pos := sort.SearchInts(m.childIdxs, childidx)
	return pos, pos < len(m.childIdxs) && m.childIdxs[pos] == childidx
}

// MonomialsEqual reports whether two monomials agree factor by factor, with
// coefficients and exponents compared up to eps. Both monomials are sorted as
// a side effect.
func MonomialsEqual(m1, m2 *Monomial, eps float64) bool {
	if len(m1.childIdxs) != len(m2.childIdxs) {
		return false
	}
	if !epsEq(m1.Coef, m2.Coef, eps) {
		return false
	}
	m1.SortFactors()
	m2.SortFactors()
	for i := range m1.childIdxs {
		if m1.childIdxs[i] != m2.childIdxs[i] || !epsEq(m1.exponents[i], m2.exponents[i], eps) {
			return false
		}
	}
	return true
}

// compareMonomials orders monomials lexicographically by their sorted
// (child index, exponent) factor sequences, shorter sequences first on ties.
func compareMonomials(m1, m2 *Monomial) int {
	m1.SortFactors()
	m2.SortFactors()
	for i := 0; i < len(m1.childIdxs) && i < len(m2.childIdxs); i++ {
		if m1.childIdxs[i] != m2.childIdxs[i] {
			return m1.childIdxs[i] - m2.childIdxs[i]
		}
		if m1.exponents[i] > m2.exponents[i] {
			return 1
		}
		if m1.exponents[i] < m2.exponents[i] {
			return -1
		}
	}
	return len(m1.childIdxs) - len(m2.childIdxs)
}

// Polynomial is the payload of a polynomial expression: a constant plus a sum
// of monomials over the expression's children.
type Polynomial struct {
	Constant float64

	monomials []*Monomial
	sorted    bool
}

// Monomials returns the monomial slice. The slice and its entries are owned
// by the polynomial.
func (p *Polynomial) Monomials() []*Monomial { return p.monomials }

// Copy returns a deep copy of the polynomial.
func (p *Polynomial) Copy() *Polynomial {
	c := &Polynomial{Constant: p.Constant, sorted: p.sorted}
	if len(p.monomials) > 0 {
		c.monomials = make([]*Monomial, len(p.monomials), cap(p.monomials))
		for i, m := range p.monomials {
			c.monomials[i] = m.Copy()
		}
	}
	return c
}

// AddMonomials appends monomials to the polynomial. With copy set the
// monomials are deep-copied, otherwise the polynomial takes ownership.
func (p *Polynomial) AddMonomials(monomials []*Monomial, copyMonomials bool) {
	if len(monomials) == 0 {
		return
	}
	need := len(p.monomials) + len(monomials)
	if need > cap(p.monomials) {
		grown := make([]*Monomial, len(p.monomials), growSize(need))
		copy(grown, p.monomials)
		p.monomials = grown
	}
	for _, m := range monomials {
		if copyMonomials {
			m = m.Copy()
		}
		p.monomials = append(p.monomials, m)
	}
	p.sorted = len(p.monomials) <= 1
}

// Sort orders the monomials.
func (p *Polynomial) Sort() {
	if p.sorted {
		return
	}
	sort.Slice(p.monomials, func(i, j int) bool {
		return compareMonomials(p.monomials[i], p.monomials[j]) < 0
	})
	p.sorted = true
}

// MergeMonomials sorts the polynomial and merges equal monomials by adding
// their coefficients. Monomials without factors are folded into the
// constant; coefficients within eps of zero eliminate their monomial. With
// mergeFactors set, each monomial's factors are merged first.
func (p *Polynomial) MergeMonomials(eps float64, mergeFactors bool) {
	if mergeFactors {
		for _, m := range p.monomials {
			m.MergeFactors(eps)
		}
		p.sorted = len(p.monomials) <= 1
	}
	p.Sort()

	out := 0
	for i := 0; i < len(p.monomials); {
		m := p.monomials[i]
		for i++; i < len(p.monomials) && compareMonomials(m, p.monomials[i]) == 0; i++ {
			m.Coef += p.monomials[i].Coef
		}
		if m.NFactors() == 0 {
			p.Constant += m.Coef
			continue
		}
		if epsZero(m.Coef, eps) {
			continue
		}
		p.monomials[out] = m
		out++
	}
	p.monomials = p.monomials[:out]

	if epsZero(p.Constant, eps) {
		p.Constant = 0
	}
}

// MultiplyByConstant multiplies the polynomial by a constant.
func (p *Polynomial) MultiplyByConstant(factor float64) {
	if factor == 1 {
		return
	}
	if factor == 0 {
		p.monomials = p.monomials[:0]
	} else {
		for _, m := range p.monomials {
			m.Coef *= factor
		}
	}
	p.Constant *= factor
}

// MultiplyByMonomial multiplies the polynomial by a monomial. childmap, if
// non-nil, translates the factor's child indices. A non-zero constant turns
// into a new monomial.
func (p *Polynomial) MultiplyByMonomial(factor *Monomial, childmap []int) {
	if factor.NFactors() == 0 {
		p.MultiplyByConstant(factor.Coef)
		return
	}
	for _, m := range p.monomials {
		m.MultiplyBy(factor, childmap)
	}
	if p.Constant != 0 {
		m := NewMonomial(p.Constant, nil, nil)
		m.MultiplyBy(factor, childmap)
		p.AddMonomials([]*Monomial{m}, false)
		p.Constant = 0
	}
	p.sorted = false
}

// MultiplyByPolynomial multiplies the polynomial by another polynomial, which
// must be a distinct object. The result is not merged; callers wanting a
// canonical form follow with MergeMonomials.
func (p *Polynomial) MultiplyByPolynomial(factor *Polynomial, childmap []int) {
	if p == factor {
		panic("expr: polynomial multiplied by itself")
	}
	if len(factor.monomials) == 0 {
		p.MultiplyByConstant(factor.Constant)
		return
	}
	if len(factor.monomials) == 1 && factor.Constant == 0 {
		p.MultiplyByMonomial(factor.monomials[0], childmap)
		return
	}

	if p.Constant != 0 {
		p.AddMonomials([]*Monomial{NewMonomial(p.Constant, nil, nil)}, false)
		p.Constant = 0
	}

	orig := append([]*Monomial(nil), p.monomials...)

	// all factor monomials except possibly the last multiply copies of the
	// original monomials; the originals absorb the last monomial, or the
	// factor's constant when it is non-zero
	last := len(factor.monomials)
	if factor.Constant == 0 {
		last--
	}
	for _, fm := range factor.monomials[:last] {
		products := make([]*Monomial, len(orig))
		for i, m := range orig {
			products[i] = m.Copy()
			products[i].MultiplyBy(fm, childmap)
		}
		p.AddMonomials(products, false)
	}
	if factor.Constant != 0 {
		for _, m := range orig {
			m.Coef *= factor.Constant
		}
	} else {
		fm := factor.monomials[last]
		for _, m := range orig {
			m.MultiplyBy(fm, childmap)
		}
	}
	p.sorted = false
}

// Power replaces the polynomial by its exponent-th power for an integer
// exponent. A negative exponent requires the polynomial to be a single
// monomial or a constant.
func (p *Polynomial) Power(exponent int) {
	if exponent == 1 {
		return
	}
	if exponent == 0 {
		// x^0 = 1, except the identically zero polynomial stays zero
		if len(p.monomials) == 0 && p.Constant == 0 {
			return
		}
		p.Constant = 1
		p.monomials = p.monomials[:0]
		return
	}
	if len(p.monomials) == 1 && p.Constant == 0 {
		p.monomials[0].Power(exponent)
		return
	}
	if len(p.monomials) == 0 {
		p.Constant = math.Pow(p.Constant, float64(exponent))
		return
	}
	if exponent < 0 {
		panic(fmt.Sprintf("expr: negative power %d of a polynomial with %d monomials", exponent, len(p.monomials)))
	}

	factor := p.Copy()
	for i := 2; i <= exponent; i++ {
		p.MultiplyByPolynomial(factor, nil)
		p.MergeMonomials(0, true)
	}
}
