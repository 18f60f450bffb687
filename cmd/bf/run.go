package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nickandperla.net/bfopt"
	bf "nickandperla.net/bfopt/brainfuck"
)

var (
	runInputPath string
	runNoOpt     bool
	runEOI       string
	runEOIByte   uint8
	runMaxSteps  uint
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a program with stdin as its input",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mc := bfopt.CloneMachineConfig(toolConfig.Machine)
		if cmd.Flags().Changed("eoi") {
			if err := mc.EOIMode.UnmarshalText([]byte(runEOI)); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("eoi-byte") {
			mc.EOIByte = runEOIByte
		}
		if cmd.Flags().Changed("max-steps") {
			mc.MaxInstructionExecutionCount = runMaxSteps
		}

		prog, err := loadProgram(args[0], !runNoOpt)
		if err != nil {
			return err
		}

		var input io.Reader = os.Stdin
		if runInputPath != "" {
			infile, err := os.Open(runInputPath)
			if err != nil {
				return fmt.Errorf("Unable to open program input: %w", err)
			}
			defer infile.Close()
			input = infile
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		// A second interrupt kills the process, e.g. while blocked on stdin.
		context.AfterFunc(ctx, stop)

		machine := bf.NewMachine(mc)
		machine.LoadProgram(prog)
		start := time.Now()
		err = machine.RunContext(ctx, bf.IO{Input: input, Output: os.Stdout, EOI: mc.EOIPolicy()})

		log.WithFields(log.Fields{
			"executed": humanize.Comma(int64(machine.InstructionCount)),
			"elapsed":  time.Since(start),
		}).Debug("Program finished")

		return err
	},
}

func init() {
	runCmd.Flags().StringVarP(&runInputPath, "input", "i", "", "Read program input from this file instead of stdin")
	runCmd.Flags().BoolVar(&runNoOpt, "no-opt", false, "Run the fused program without peephole passes")
	runCmd.Flags().StringVar(&runEOI, "eoi", "emit", "End of input behaviour: emit or fail")
	runCmd.Flags().Uint8Var(&runEOIByte, "eoi-byte", 0, "Byte read once input is exhausted in emit mode")
	runCmd.Flags().UintVar(&runMaxSteps, "max-steps", 0, "Abort after this many instructions (0 = unlimited)")
}

func loadProgram(path string, optimize bool) (bf.Program, error) {
	srcfile, err := os.Open(path)
	if err != nil {
		return bf.Program{}, fmt.Errorf("Unable to open program source: %w", err)
	}
	defer srcfile.Close()

	prog, err := bf.Compile(srcfile)
	if err != nil {
		return bf.Program{}, err
	}
	if !optimize {
		return prog, nil
	}
	return bf.Optimize(prog)
}
