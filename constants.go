package bfopt

import "fmt"

// RunMode says which form of a fixture's program a run executed.
type RunMode uint8

// FailReason is why a fixture did not pass. Zero means it passed.
type FailReason uint8

const (
	ModeRaw       RunMode = 1
	ModeOptimized RunMode = 2

	FailedCompile              FailReason = 1
	FailedOptimize             FailReason = 2
	FailedMachineRun           FailReason = 3
	FailedOutput               FailReason = 4
	FailedDivergence           FailReason = 5
	FailedInstructionCount     FailReason = 6
	FailedInstructionsExecuted FailReason = 7

	DEFAULT_SUITE_DIR = "./testdata"
	DEFAULT_DB_NAME   = "bfopt.db"
	DEFAULT_DB_PATH   = "."
)

func (m RunMode) String() string {
	switch m {
	case ModeRaw:
		return "raw"
	case ModeOptimized:
		return "optimized"
	}
	return fmt.Sprintf("RunMode(%d)", uint8(m))
}

func (r FailReason) String() string {
	switch r {
	case 0:
		return "passed"
	case FailedCompile:
		return "compile"
	case FailedOptimize:
		return "optimize"
	case FailedMachineRun:
		return "machine run"
	case FailedOutput:
		return "output"
	case FailedDivergence:
		return "divergence"
	case FailedInstructionCount:
		return "instruction count"
	case FailedInstructionsExecuted:
		return "instructions executed"
	}
	return fmt.Sprintf("FailReason(%d)", uint8(r))
}
