package bfopt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xrash/smetrics"

	bf "nickandperla.net/bfopt/brainfuck"
)

// An evaluation of one fixture. The source is compiled and run as fused,
// then optimized and run again. Each run is an Outcome; comparing them with
// the expected output and with each other is the Selector's job.

type Outcome struct {
	Mode                 RunMode
	Program              bf.Program
	ProgramLen           uint
	Output               []byte
	InstructionsExecuted uint
	Elapsed              time.Duration
	MachineError         error
	// Edit distance between Output and the fixture's expected output.
	Distance int
}

type Result struct {
	Fixture     *Fixture
	ProgramHash string
	Raw         *Outcome
	Optimized   *Outcome
	Passes      []bf.PassStats
	Err         error
	Reason      FailReason
}

func (r *Result) Passed() bool {
	return r.Reason == 0
}

// Largest expected*actual product scored with a full edit distance table.
const DISTANCE_MAX_CELLS = 1 << 22

type EvaluatorConfig struct {
	OptimizeOnly bool
	Passes       []bf.Pass
	// Distances above this are only bounded, not computed exactly.
	MaxDistance int
}

type Evaluator struct {
	Config *EvaluatorConfig
}

func NewEvaluator(ec *EvaluatorConfig) *Evaluator {
	if ec == nil {
		ec = &EvaluatorConfig{}
	}
	return &Evaluator{Config: ec}
}

// Evaluate compiles and runs f. Once ctx is done the running machine stops
// and the result carries the context error with FailedMachineRun.
func (e *Evaluator) Evaluate(ctx context.Context, f *Fixture) *Result {
	result := &Result{Fixture: f}

	raw, err := bf.Compile(bytes.NewReader(f.Source))
	if err != nil {
		result.Err = err
		result.Reason = FailedCompile
		return result
	}
	if result.ProgramHash, err = ProgramHash(raw); err != nil {
		result.Err = err
		result.Reason = FailedCompile
		return result
	}

	if !e.Config.OptimizeOnly {
		result.Raw = e.run(ctx, f, ModeRaw, raw)
		if err := ctx.Err(); err != nil {
			result.Err = err
			result.Reason = FailedMachineRun
			return result
		}
	}

	pipeline := bf.NewPipeline(e.Config.Passes...)
	optimized, err := pipeline.Run(raw)
	result.Passes = pipeline.Stats
	if err != nil {
		result.Err = fmt.Errorf("Failed to optimize fixture [%s]. %w", f.Name, err)
		result.Reason = FailedOptimize
		return result
	}
	result.Optimized = e.run(ctx, f, ModeOptimized, optimized)
	if err := ctx.Err(); err != nil {
		result.Err = err
		result.Reason = FailedMachineRun
	}

	return result
}

func (e *Evaluator) run(ctx context.Context, f *Fixture, mode RunMode, p bf.Program) *Outcome {
	machine := bf.NewMachine(f.MachineConfig)
	machine.LoadProgram(p)

	var out bytes.Buffer
	start := time.Now()
	err := machine.RunContext(ctx, bf.IO{
		Input:  bytes.NewReader(f.Input),
		Output: &out,
		EOI:    machine.Config.EOIPolicy(),
	})

	outcome := &Outcome{
		Mode:                 mode,
		Program:              p,
		ProgramLen:           uint(p.Len()),
		Output:               out.Bytes(),
		InstructionsExecuted: machine.InstructionCount,
		Elapsed:              time.Since(start),
		MachineError:         err,
	}
	if !bytes.Equal(outcome.Output, f.Expected) {
		outcome.Distance = outputDistance(f.Expected, outcome.Output, e.Config.MaxDistance)
	}

	log.WithFields(log.Fields{
		"fixture":  f.Name,
		"mode":     mode.String(),
		"len":      outcome.ProgramLen,
		"executed": outcome.InstructionsExecuted,
		"distance": outcome.Distance,
	}).Debug("Fixture run complete")

	return outcome
}

// outputDistance is the Wagner-Fischer distance (insert 1, delete 1,
// substitute 2) between expected and actual. When the length gap alone
// exceeds max, the gap is returned as the lower bound. Inputs too large to
// score get the upper bound len(expected)+len(actual).
func outputDistance(expected, actual []byte, max int) int {
	gap := len(expected) - len(actual)
	if gap < 0 {
		gap = -gap
	}
	if gap > max {
		return gap
	}
	if len(expected)*len(actual) > DISTANCE_MAX_CELLS {
		return len(expected) + len(actual)
	}
	return smetrics.WagnerFischer(string(expected), string(actual), 1, 1, 2)
}
