package brainfuck

import (
	"fmt"
)

// DEFAULT_TAPE_LENGTH is the cell count used when a config leaves it unset.
const DEFAULT_TAPE_LENGTH uint = 1 << 20

type MemoryConfig struct {
	CellCount uint
}

// Memory is the data tape. It is a ring: the pointer and every cell offset
// wrap modulo CellCount, and cells wrap modulo 256.
type Memory struct {
	Cells         []uint8
	CellCount     uint
	MemoryPointer uint
}

func NewMemory(cell_count uint) *Memory {
	if cell_count == 0 {
		cell_count = DEFAULT_TAPE_LENGTH
	}
	return &Memory{
		Cells:         make([]uint8, cell_count),
		CellCount:     cell_count,
		MemoryPointer: 0,
	}
}

func NewMemoryFromConfig(c *MemoryConfig) *Memory {
	return NewMemory(c.CellCount)
}

func (m *Memory) Reset() {
	for i := 0; i < len(m.Cells); i++ {
		m.Cells[i] = 0
	}
	m.MemoryPointer = 0
}

// Index returns the cell index offset cells away from the pointer.
func (m *Memory) Index(offset int) uint {
	n := int64(m.CellCount)
	i := (int64(m.MemoryPointer) + int64(offset)) % n
	if i < 0 {
		i += n
	}
	return uint(i)
}

func (m *Memory) GetCurrentCell() uint8 {
	return m.Cells[m.MemoryPointer]
}

func (m *Memory) SetCurrentCell(val uint8) {
	m.Cells[m.MemoryPointer] = val
}

func (m *Memory) MovePointer(shift int) {
	m.MemoryPointer = m.Index(shift)
}

// ApplyCellOp applies every edit of ins, then moves the pointer by its
// shift. Edits target distinct cells unless the tape is shorter than the
// span of offsets, in which case they land in offset order.
func (m *Memory) ApplyCellOp(ins Instruction) {
	for _, e := range ins.Edits {
		i := m.Index(e.Offset)
		m.Cells[i] = e.Op.Apply(m.Cells[i])
	}
	if ins.Shift != 0 {
		m.MovePointer(ins.Shift)
	}
}

func (m *Memory) String() string {
	return fmt.Sprintf("Memory{CellCount: %d, MemoryPointer: %d}", m.CellCount, m.MemoryPointer)
}
