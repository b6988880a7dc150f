package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optlang/nlexpr/internal/parse"
	"github.com/optlang/nlexpr/interval"
)

var (
	boundsLower string
	boundsUpper string
)

var boundsCmd = &cobra.Command{
	Use:   "bounds <expression>",
	Short: "bound an expression over a variable box",
	Args:  cobra.ExactArgs(1),
	RunE:  runBounds,
}

func init() {
	boundsCmd.Flags().StringVar(&boundsLower, "lower", "", "comma-separated variable lower bounds (default unbounded)")
	boundsCmd.Flags().StringVar(&boundsUpper, "upper", "", "comma-separated variable upper bounds (default unbounded)")
}

// parseBox builds per-variable intervals from the lower/upper flag lists.
// Missing entries are unbounded in that direction.
func parseBox(nvars int, lower, upper string) ([]interval.Interval, error) {
	lo, err := parseFloats(lower)
	if err != nil {
		return nil, err
	}
	up, err := parseFloats(upper)
	if err != nil {
		return nil, err
	}
	if len(lo) > nvars || len(up) > nvars {
		return nil, fmt.Errorf("expression uses %d variables, got %d lower and %d upper bounds", nvars, len(lo), len(up))
	}

	box := make([]interval.Interval, nvars)
	for i := range box {
		box[i] = interval.Entire(flagInfinity)
		if i < len(lo) {
			box[i].Inf = lo[i]
		}
		if i < len(up) {
			box[i].Sup = up[i]
		}
		if box[i].Inf > box[i].Sup {
			return nil, fmt.Errorf("variable x%d has empty bounds [%g, %g]", i, box[i].Inf, box[i].Sup)
		}
	}
	return box, nil
}

func formatInterval(b interval.Interval) string {
	inf, sup := "-inf", "+inf"
	if b.Inf > -flagInfinity {
		inf = fmt.Sprintf("%g", b.Inf)
	}
	if b.Sup < flagInfinity {
		sup = fmt.Sprintf("%g", b.Sup)
	}
	return fmt.Sprintf("[%s, %s]", inf, sup)
}

func runBounds(cmd *cobra.Command, args []string) error {
	tree, err := parse.ParseTree(args[0])
	if err != nil {
		return err
	}
	box, err := parseBox(tree.NVars(), boundsLower, boundsUpper)
	if err != nil {
		return err
	}

	b := tree.EvalInt(flagInfinity, box)
	if b.IsEmpty() {
		return fmt.Errorf("expression has no value on the given box")
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatInterval(b))
	return nil
}
