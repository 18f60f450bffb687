package brainfuck

import (
	"bytes"
	"context"
	"fmt"
)

var ErrMaxInstructionExecutionCountReached error = fmt.Errorf("Instruction execution count limit reached")

// Instructions executed between context checks in RunContext.
const CONTEXT_CHECK_INTERVAL uint = 1 << 14

type Machine struct {
	Tape             *Tape
	Memory           *Memory
	Config           *MachineConfig
	InstructionCount uint
}

// MachineConfig configures a Machine. Zero values mean: default tape
// length, no execution limit, and 0 substituted for reads past end of input.
type MachineConfig struct {
	MaxInstructionExecutionCount uint    `toml:"max_instruction_execution_count"`
	TapeLength                   uint    `toml:"tape_length"`
	EOIMode                      EOIMode `toml:"eoi"`
	EOIByte                      uint8   `toml:"eoi_byte"`
}

func (mc *MachineConfig) EOIPolicy() EOIPolicy {
	return EOIPolicy{Mode: mc.EOIMode, Byte: mc.EOIByte}
}

func NewMachine(mc *MachineConfig) *Machine {
	if mc == nil {
		mc = &MachineConfig{}
	}
	return &Machine{
		Memory: NewMemoryFromConfig(&MemoryConfig{CellCount: mc.TapeLength}),
		Config: mc,
	}
}

func (m *Machine) Reset() {
	if m.Tape != nil {
		m.Tape.Reset()
	}
	m.Memory.Reset()
	m.InstructionCount = 0
}

func (m *Machine) LoadProgram(p Program) {
	if m.Tape == nil {
		m.Tape = NewTape(p)
	} else {
		m.Tape.Program = p
		m.Tape.Reset()
	}
}

func (m *Machine) LoadMemory(input []uint8) (bool, error) {

	if uint(len(input)) > m.Memory.CellCount {
		return false, fmt.Errorf("Failed to load memory. Input length [%d] is greater than memory capacity [%d]", len(input), m.Memory.CellCount)
	}

	copy(m.Memory.Cells, input)
	return true, nil
}

func (m *Machine) ReadMemory(count uint) (bool, []uint8, error) {

	if count > m.Memory.CellCount {
		return false, []uint8{}, fmt.Errorf("Failed to read memory. Read count [%d] is greater than memory capacity [%d]", count, m.Memory.CellCount)
	}

	return true, m.Memory.Cells[0:count], nil
}

// Run executes the loaded program until it falls off the end. Reads and
// writes go through pio. A program that never halts makes Run block forever
// unless MaxInstructionExecutionCount is set.
func (m *Machine) Run(pio IO) error {
	return m.RunContext(context.Background(), pio)
}

// RunContext is Run that also stops once ctx is done. The context is polled
// every CONTEXT_CHECK_INTERVAL instructions; the returned error wraps
// ctx.Err(). A Read blocked inside pio.Input is not interrupted.
func (m *Machine) RunContext(ctx context.Context, pio IO) error {
	if m.Tape == nil {
		return fmt.Errorf("Failed to run machine. No program loaded")
	}

	rw := newProgramIO(pio)
	err := m.run(ctx, rw)
	if ferr := rw.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("Failed to flush program output. %w", ferr)
	}
	return err
}

func (m *Machine) run(ctx context.Context, rw *programIO) error {
	limit := m.Config.MaxInstructionExecutionCount
	done := ctx.Done()
	next := m.InstructionCount
	for {
		if done != nil && m.InstructionCount >= next {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("Machine stopped after [%d] instructions. %w", m.InstructionCount, err)
			}
			next = m.InstructionCount + CONTEXT_CHECK_INTERVAL
		}

		ok, ins := m.Tape.GetCurrentInstruction()
		if !ok {
			if !m.Tape.PopLoop() {
				return nil
			}
			continue
		}
		if limit != 0 && m.InstructionCount >= limit {
			return ErrMaxInstructionExecutionCountReached
		}

		switch ins.Kind {
		case InsCellOp:
			m.Memory.ApplyCellOp(ins)
			m.Tape.Advance()
		case InsRead:
			val, err := rw.ReadByte()
			if err != nil {
				return m.ioError("Read", err)
			}
			m.Memory.SetCurrentCell(val)
			m.Tape.Advance()
		case InsWrite:
			if err := rw.WriteByte(m.Memory.GetCurrentCell()); err != nil {
				return m.ioError("Write", err)
			}
			m.Tape.Advance()
		case InsLoop:
			if m.Memory.GetCurrentCell() != 0 {
				m.Tape.PushLoop(ins.Body)
			} else {
				m.Tape.Advance()
			}
		default:
			panic(fmt.Sprintf("Unknown instruction kind [%d] encountered!", ins.Kind))
		}

		m.InstructionCount = m.InstructionCount + 1
	}
}

func (m *Machine) ioError(op string, err error) error {
	f := m.Tape.Current()
	return fmt.Errorf("%s at instruction index [%d] (loop depth [%d]) failed on memory cell index [%d]. %w", op, f.InstructionPointer, m.Tape.Depth(), m.Memory.MemoryPointer, err)
}

// Execute runs p on a fresh machine with input as the whole input stream and
// returns everything the program wrote.
func Execute(p Program, input []byte, mc *MachineConfig) ([]byte, error) {
	return ExecuteContext(context.Background(), p, input, mc)
}

func ExecuteContext(ctx context.Context, p Program, input []byte, mc *MachineConfig) ([]byte, error) {
	m := NewMachine(mc)
	m.LoadProgram(p)
	var out bytes.Buffer
	err := m.RunContext(ctx, IO{Input: bytes.NewReader(input), Output: &out, EOI: m.Config.EOIPolicy()})
	return out.Bytes(), err
}
