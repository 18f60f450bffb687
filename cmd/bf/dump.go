package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	bf "nickandperla.net/bfopt/brainfuck"
)

var dumpStage string

// Stage names in pipeline order. Each pass of the default pipeline adds one.
var dumpStages = []string{"raw", "fused", "merged", "zeroed", "final"}

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print a program after each optimization stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		known := dumpStage == "all"
		for _, s := range dumpStages {
			known = known || s == dumpStage
		}
		if !known {
			return fmt.Errorf("Unknown stage [%s]. Expected one of %v or all", dumpStage, dumpStages)
		}

		srcfile, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("Unable to open program source: %w", err)
		}
		defer srcfile.Close()

		scope, err := bf.Parse(srcfile)
		if err != nil {
			return err
		}
		show := func(stage, text string) {
			if dumpStage == "all" {
				fmt.Printf("== %s ==\n", stage)
			}
			if dumpStage == "all" || dumpStage == stage {
				fmt.Println(text)
			}
		}

		show("raw", scope.String())
		prog := bf.Fuse(scope)
		show("fused", prog.String())

		pipeline := bf.NewPipeline()
		for stage := 2; ; stage++ {
			out, more, err := pipeline.ApplyNext(prog)
			if err != nil {
				return err
			}
			if !more {
				break
			}
			prog = out
			show(dumpStages[stage], prog.String())
		}
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringVar(&dumpStage, "stage", "all", "Only print this stage: raw, fused, merged, zeroed or final")
}
