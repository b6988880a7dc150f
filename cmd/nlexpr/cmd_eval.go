package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optlang/nlexpr/internal/parse"
)

var (
	evalAt     string
	evalParams string
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "evaluate an expression at a point",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalAt, "at", "", "comma-separated variable values (x0,x1,...)")
	evalCmd.Flags().StringVar(&evalParams, "params", "", "comma-separated parameter values (p0,p1,...)")
}

func runEval(cmd *cobra.Command, args []string) error {
	tree, err := parse.ParseTree(args[0])
	if err != nil {
		return err
	}

	varvals, err := parseFloats(evalAt)
	if err != nil {
		return err
	}
	if len(varvals) != tree.NVars() {
		return fmt.Errorf("expression uses %d variables, --at gives %d values", tree.NVars(), len(varvals))
	}
	params, err := parseFloats(evalParams)
	if err != nil {
		return err
	}
	if len(params) != tree.NParams() {
		return fmt.Errorf("expression uses %d parameters, --params gives %d values", tree.NParams(), len(params))
	}
	tree.SetParams(params)

	val, err := tree.EvalChecked(flagInfinity, varvals)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%g\n", val)
	return nil
}
