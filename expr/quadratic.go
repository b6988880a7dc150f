package expr

// QuadElem is one bilinear term Coef * child[Idx1] * child[Idx2] of a
// quadratic expression. Idx1 <= Idx2 always holds; a square term has
// Idx1 == Idx2.
type QuadElem struct {
	Idx1 int
	Idx2 int
	Coef float64
}

func quadElemLess(a, b QuadElem) bool {
	return a.Idx1 < b.Idx1 || (a.Idx1 == b.Idx1 && a.Idx2 < b.Idx2)
}

// SortQuadElems sorts the elements by first index, then second index.
// Partitions below 25 elements are left for the shellsort finish.
func SortQuadElems(elems []QuadElem) {
	quadElemQuickSort(elems, 0, len(elems)-1)
	quadElemShellSort(elems)
}

func quadElemQuickSort(elems []QuadElem, start, end int) {
	for end-start >= 25 {
		pivot := elems[(start+end)/2]
		lo, hi := start, end
		for lo <= hi {
			for quadElemLess(elems[lo], pivot) {
				lo++
			}
			for quadElemLess(pivot, elems[hi]) {
				hi--
			}
			if lo <= hi {
				elems[lo], elems[hi] = elems[hi], elems[lo]
				lo++
				hi--
			}
		}
		// recurse into the smaller partition, iterate on the larger
		if hi-start < end-lo {
			quadElemQuickSort(elems, start, hi)
			start = lo
		} else {
			quadElemQuickSort(elems, lo, end)
			end = hi
		}
	}
}

var quadElemShellIncrements = [...]int{1, 5, 19}

func quadElemShellSort(elems []QuadElem) {
	for k := len(quadElemShellIncrements) - 1; k >= 0; k-- {
		h := quadElemShellIncrements[k]
		for i := h; i < len(elems); i++ {
			e := elems[i]
			j := i
			for ; j >= h && quadElemLess(e, elems[j-h]); j -= h {
				elems[j] = elems[j-h]
			}
			elems[j] = e
		}
	}
}

// FindQuadElem searches sorted elements for the pair (idx1, idx2) and returns
// the position where it sits or would be inserted.
func FindQuadElem(elems []QuadElem, idx1, idx2 int) (pos int, found bool) {
	if idx1 > idx2 {
		idx1, idx2 = idx2, idx1
	}
	key := QuadElem{Idx1: idx1, Idx2: idx2}
	lo, hi := 0, len(elems)
	for lo < hi {
		mid := (lo + hi) / 2
		if quadElemLess(elems[mid], key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(elems) && elems[lo].Idx1 == idx1 && elems[lo].Idx2 == idx2
}

// SqueezeQuadElems merges sorted elements with equal index pairs by adding
// their coefficients and drops elements with zero coefficient. It returns the
// squeezed slice, which shares the input's backing array.
func SqueezeQuadElems(elems []QuadElem) []QuadElem {
	out := 0
	for i := 0; i < len(elems); {
		e := elems[i]
		for i++; i < len(elems) && elems[i].Idx1 == e.Idx1 && elems[i].Idx2 == e.Idx2; i++ {
			e.Coef += elems[i].Coef
		}
		if e.Coef == 0 {
			continue
		}
		elems[out] = e
		out++
	}
	return elems[:out]
}
