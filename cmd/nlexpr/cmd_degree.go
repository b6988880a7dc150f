package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optlang/nlexpr/expr"
	"github.com/optlang/nlexpr/internal/parse"
)

var degreeCmd = &cobra.Command{
	Use:   "degree <expression>",
	Short: "print the polynomial degree of an expression",
	Args:  cobra.ExactArgs(1),
	RunE:  runDegree,
}

func runDegree(cmd *cobra.Command, args []string) error {
	tree, err := parse.ParseTree(args[0])
	if err != nil {
		return err
	}

	deg := tree.MaxDegree()
	if deg >= expr.DegreeInfinity {
		fmt.Fprintln(cmd.OutOrStdout(), "not a polynomial")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", deg)
	return nil
}
