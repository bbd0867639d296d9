package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/StarGazerM/datalchemy/analysis"
	"github.com/StarGazerM/datalchemy/internal/loader"
)

var checkCmd = &cobra.Command{
	Use:   "check <program.yaml>",
	Short: "Validate a program without evaluating it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := loader.Load(args[0])
		if err != nil {
			return err
		}
		info, err := analysis.Analyze(prog)
		if err != nil {
			return err
		}
		fmt.Printf("%s: ok (%d relations, %d rules, %d facts)\n",
			prog.Name, len(info.Decls), len(info.Rules), len(info.Facts))
		for i, stratum := range info.Strata {
			marker := ""
			if analysis.IsRecursive(stratum, info.Rules) {
				marker = " (recursive)"
			}
			fmt.Printf("  stratum %d: %s%s\n", i, strings.Join(stratum, ", "), marker)
		}
		return nil
	},
}
