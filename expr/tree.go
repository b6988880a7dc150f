package expr

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/optlang/nlexpr/curvature"
	"github.com/optlang/nlexpr/interval"
)

// ErrNotFinite reports a checked evaluation that produced NaN or an infinite
// value.
var ErrNotFinite = errors.New("expr: evaluation result not finite")

// InterpreterData is opaque state an expression interpreter attaches to a
// tree. The tree frees it when its structure changes.
type InterpreterData interface {
	Free() error
}

// Tree couples an expression with the variable and parameter space it is
// evaluated over. Variables of the expression are indexed 0..NVars-1;
// parameter values live in the tree and can be reassigned between
// evaluations.
type Tree struct {
	root   *Expr
	nvars  int
	params []float64

	interpreterData InterpreterData
}

// NewTree returns a tree over the given root. params is copied; its length
// fixes the number of parameters for the lifetime of the tree.
func NewTree(root *Expr, nvars int, params []float64) (*Tree, error) {
	if root == nil {
		return nil, errors.New("expr: nil root")
	}
	if nvars < 0 {
		return nil, fmt.Errorf("expr: negative variable count %d", nvars)
	}
	t := &Tree{
		root:  root,
		nvars: nvars,
	}
	if len(params) > 0 {
		t.params = append([]float64(nil), params...)
	}
	return t, nil
}

// Root returns the tree's root expression.
func (t *Tree) Root() *Expr { return t.root }

// NVars returns the number of variables of the tree.
func (t *Tree) NVars() int { return t.nvars }

// NParams returns the number of parameters of the tree.
func (t *Tree) NParams() int { return len(t.params) }

// ParamVals returns the parameter values. The slice is owned by the tree.
func (t *Tree) ParamVals() []float64 { return t.params }

// SetParamVal sets the value of a single parameter.
func (t *Tree) SetParamVal(idx int, value float64) {
	t.params[idx] = value
}

// SetParams replaces all parameter values. The slice is copied and its
// length becomes the new parameter count.
func (t *Tree) SetParams(params []float64) {
	t.params = append(t.params[:0:0], params...)
}

// Copy returns a deep copy of the tree. Interpreter data is not copied.
func (t *Tree) Copy() *Tree {
	c := &Tree{
		root:  t.root.Copy(),
		nvars: t.nvars,
	}
	if len(t.params) > 0 {
		c.params = append([]float64(nil), t.params...)
	}
	return c
}

// Eval evaluates the tree at a point.
func (t *Tree) Eval(varvals []float64) float64 {
	return t.root.Eval(varvals, t.params)
}

// EvalChecked evaluates the tree at a point and fails when the result is NaN
// or infinite with respect to the given infinity threshold.
func (t *Tree) EvalChecked(infinity float64, varvals []float64) (float64, error) {
	val := t.root.Eval(varvals, t.params)
	if math.IsNaN(val) {
		return val, fmt.Errorf("%w: NaN", ErrNotFinite)
	}
	if math.IsInf(val, 0) || math.Abs(val) >= infinity {
		return val, fmt.Errorf("%w: %g exceeds infinity threshold %g", ErrNotFinite, val, infinity)
	}
	return val, nil
}

// EvalInt evaluates the tree over variable bounds.
func (t *Tree) EvalInt(infinity float64, varbounds []interval.Interval) interval.Interval {
	return t.root.EvalInt(infinity, varbounds, t.params)
}

// CheckCurvature computes the curvature of the tree over variable bounds,
// together with the bounds of the tree itself.
func (t *Tree) CheckCurvature(infinity float64, varbounds []interval.Interval) (curvature.Curvature, interval.Interval) {
	return t.root.CheckCurvature(infinity, varbounds, t.params)
}

// MaxDegree returns the maximal degree of the tree seen as a polynomial, or
// DegreeInfinity if it is not a polynomial.
func (t *Tree) MaxDegree() int {
	return t.root.MaxDegree()
}

// HasParam reports whether any node of the tree is a parameter.
func (t *Tree) HasParam() bool {
	return t.root.HasParam()
}

// VarsUsage returns, per variable, how often it occurs in the tree.
func (t *Tree) VarsUsage() []int {
	counts := make([]int, t.nvars)
	t.root.VarsUsage(counts)
	return counts
}

// SubstituteVars replaces variables by copies of the given expressions; a nil
// entry keeps the variable. The tree's interpreter data is freed since the
// structure changed.
func (t *Tree) SubstituteVars(substs []*Expr) error {
	t.root = t.root.SubstituteVars(substs)
	if t.interpreterData != nil {
		if err := t.interpreterData.Free(); err != nil {
			return fmt.Errorf("expr: freeing interpreter data: %w", err)
		}
		t.interpreterData = nil
	}
	return nil
}

// InterpreterData returns the attached interpreter data, if any.
func (t *Tree) InterpreterData() InterpreterData { return t.interpreterData }

// SetInterpreterData attaches interpreter data, freeing any previous data.
func (t *Tree) SetInterpreterData(data InterpreterData) error {
	if t.interpreterData != nil && t.interpreterData != data {
		if err := t.interpreterData.Free(); err != nil {
			return fmt.Errorf("expr: freeing interpreter data: %w", err)
		}
	}
	t.interpreterData = data
	return nil
}

// FreeInterpreterData frees and detaches the interpreter data.
func (t *Tree) FreeInterpreterData() error {
	if t.interpreterData == nil {
		return nil
	}
	err := t.interpreterData.Free()
	t.interpreterData = nil
	if err != nil {
		return fmt.Errorf("expr: freeing interpreter data: %w", err)
	}
	return nil
}

// Print writes the tree to w using the given variable and parameter names.
func (t *Tree) Print(w io.Writer, varnames, paramnames []string) {
	t.root.Print(w, varnames, paramnames)
}

func (t *Tree) String() string {
	var sb strings.Builder
	t.root.Print(&sb, nil, nil)
	return sb.String()
}
