// Command nlexpr evaluates and analyzes nonlinear expressions from the
// command line. Expressions use variables x0, x1, ... and parameters
// p0, p1, ..., for example:
//
//	nlexpr eval "x0 + 2*x1" --at 3,-2
//	nlexpr bounds "x0^2 - 2*x0" --lower 0 --upper 3
//	nlexpr curvature "exp(x0)" --lower -1 --upper 1
//	nlexpr degree "x0^2 * x1"
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// infinity threshold shared by interval and checked evaluation
var flagInfinity float64

var rootCmd = &cobra.Command{
	Use:           "nlexpr",
	Short:         "evaluate and analyze nonlinear expressions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "nlexpr: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Float64Var(&flagInfinity, "infinity", 1e20, "threshold beyond which values count as unbounded")
	rootCmd.AddCommand(evalCmd, boundsCmd, curvatureCmd, degreeCmd)
}

// parseFloats splits a comma-separated list of numbers.
func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q in %q", part, s)
		}
		vals[i] = v
	}
	return vals, nil
}
