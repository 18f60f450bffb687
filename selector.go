package bfopt

import (
	"bytes"
)

type Selector struct {
	Config *SelectorConfig
}

// SelectorConfig tunes what counts as a passing fixture. The zero value is
// strict: exact output, no machine errors.
type SelectorConfig struct {
	// Expected output edit distance still accepted.
	MaxDistance int `toml:"max_distance"`
	// Cap on instructions the optimized program may execute. 0 is no cap.
	InstructionsExecuted uint `toml:"instructions_executed"`
}

func NewSelector(config *SelectorConfig) *Selector {
	if config == nil {
		config = &SelectorConfig{}
	}
	return &Selector{Config: config}
}

// Select returns why r failed, or 0. Failures found during evaluation are
// kept as they are.
func (s *Selector) Select(r *Result) FailReason {
	if r.Reason != 0 {
		return r.Reason
	}
	if r.Optimized == nil {
		return FailedOptimize
	}

	for _, o := range []*Outcome{r.Raw, r.Optimized} {
		if o == nil {
			continue
		}
		if o.MachineError != nil {
			return FailedMachineRun
		}
		if o.Distance > s.Config.MaxDistance {
			return FailedOutput
		}
	}

	if r.Raw != nil {
		if !bytes.Equal(r.Raw.Output, r.Optimized.Output) {
			return FailedDivergence
		}
		if r.Optimized.ProgramLen > r.Raw.ProgramLen {
			return FailedInstructionCount
		}
		if r.Optimized.InstructionsExecuted > r.Raw.InstructionsExecuted {
			return FailedInstructionsExecuted
		}
	}
	if s.Config.InstructionsExecuted != 0 && r.Optimized.InstructionsExecuted > s.Config.InstructionsExecuted {
		return FailedInstructionsExecuted
	}

	return 0
}
