package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optlang/nlexpr/internal/parse"
)

var (
	curvatureLower string
	curvatureUpper string
)

var curvatureCmd = &cobra.Command{
	Use:   "curvature <expression>",
	Short: "classify the curvature of an expression over a variable box",
	Args:  cobra.ExactArgs(1),
	RunE:  runCurvature,
}

func init() {
	curvatureCmd.Flags().StringVar(&curvatureLower, "lower", "", "comma-separated variable lower bounds (default unbounded)")
	curvatureCmd.Flags().StringVar(&curvatureUpper, "upper", "", "comma-separated variable upper bounds (default unbounded)")
}

func runCurvature(cmd *cobra.Command, args []string) error {
	tree, err := parse.ParseTree(args[0])
	if err != nil {
		return err
	}
	box, err := parseBox(tree.NVars(), curvatureLower, curvatureUpper)
	if err != nil {
		return err
	}

	curv, bounds := tree.CheckCurvature(flagInfinity, box)
	fmt.Fprintf(cmd.OutOrStdout(), "curvature: %s\nbounds:    %s\n", curv, formatInterval(bounds))
	return nil
}
