package brainfuck

import (
	"sort"
)

type OpKind uint8

const (
	OpAdd OpKind = iota
	OpSet
)

// Operation is what a CellOp does to one cell. For OpAdd, Value is the
// delta in two's complement; for OpSet it is the absolute value.
type Operation struct {
	Kind  OpKind
	Value uint8
}

func Add(delta int8) Operation {
	return Operation{Kind: OpAdd, Value: uint8(delta)}
}

func Set(value uint8) Operation {
	return Operation{Kind: OpSet, Value: value}
}

func (o Operation) Delta() int8 {
	return int8(o.Value)
}

// Then composes o followed by next into a single operation on the same cell.
func (o Operation) Then(next Operation) Operation {
	if next.Kind == OpSet {
		return next
	}
	return Operation{Kind: o.Kind, Value: o.Value + next.Value}
}

// Apply returns the cell value after o.
func (o Operation) Apply(cell uint8) uint8 {
	if o.Kind == OpSet {
		return o.Value
	}
	return cell + o.Value
}

// IsIdentity is true for Add(0).
func (o Operation) IsIdentity() bool {
	return o.Kind == OpAdd && o.Value == 0
}

// Edit pairs an Operation with the cell offset it targets, relative to the
// pointer on entry to the owning CellOp.
type Edit struct {
	Offset int
	Op     Operation
}

type Kind uint8

const (
	InsCellOp Kind = iota
	InsRead
	InsWrite
	InsLoop
)

// Instruction is one node of the IR. Edits and Shift are only meaningful for
// InsCellOp, Body only for InsLoop. Edits are sorted by offset with no
// duplicates and no identity operations.
type Instruction struct {
	Kind  Kind
	Edits []Edit
	Shift int
	Body  Program
}

var (
	ReadInstruction  = Instruction{Kind: InsRead}
	WriteInstruction = Instruction{Kind: InsWrite}
)

// NewCellOp normalizes edits into a CellOp. It returns false when the result
// would do nothing, in which case the instruction must not be emitted.
// Later edits to an offset already present are composed onto the earlier one.
func NewCellOp(edits []Edit, shift int) (Instruction, bool) {
	b := newCellOpBuilder()
	for _, e := range edits {
		b.apply(e.Offset, e.Op)
	}
	b.shift = shift
	return b.build()
}

func LoopOf(body Program) Instruction {
	return Instruction{Kind: InsLoop, Body: body}
}

// EditAt returns the operation at offset, if any.
func (ins Instruction) EditAt(offset int) (Operation, bool) {
	i := sort.Search(len(ins.Edits), func(i int) bool { return ins.Edits[i].Offset >= offset })
	if i < len(ins.Edits) && ins.Edits[i].Offset == offset {
		return ins.Edits[i].Op, true
	}
	return Operation{}, false
}

// Equal compares two instructions structurally, descending into loop bodies.
func (ins Instruction) Equal(other Instruction) bool {
	if ins.Kind != other.Kind {
		return false
	}
	switch ins.Kind {
	case InsCellOp:
		if ins.Shift != other.Shift || len(ins.Edits) != len(other.Edits) {
			return false
		}
		for i := range ins.Edits {
			if ins.Edits[i] != other.Edits[i] {
				return false
			}
		}
	case InsLoop:
		return ins.Body.Equal(other.Body)
	}
	return true
}

// Merge folds b into a, as if a ran and then b ran. Both must be CellOps.
// The result is false when the merged node does nothing.
func Merge(a, b Instruction) (Instruction, bool) {
	m := newCellOpBuilder()
	for _, e := range a.Edits {
		m.apply(e.Offset, e.Op)
	}
	for _, e := range b.Edits {
		m.apply(e.Offset+a.Shift, e.Op)
	}
	m.shift = a.Shift + b.Shift
	return m.build()
}

type cellOpBuilder struct {
	edits map[int]Operation
	shift int
}

func newCellOpBuilder() *cellOpBuilder {
	return &cellOpBuilder{edits: make(map[int]Operation)}
}

func (b *cellOpBuilder) apply(offset int, op Operation) {
	if prev, ok := b.edits[offset]; ok {
		b.edits[offset] = prev.Then(op)
	} else {
		b.edits[offset] = op
	}
}

func (b *cellOpBuilder) empty() bool {
	return len(b.edits) == 0 && b.shift == 0
}

func (b *cellOpBuilder) reset() {
	b.edits = make(map[int]Operation)
	b.shift = 0
}

func (b *cellOpBuilder) build() (Instruction, bool) {
	edits := make([]Edit, 0, len(b.edits))
	for off, op := range b.edits {
		if op.IsIdentity() {
			continue
		}
		edits = append(edits, Edit{Offset: off, Op: op})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].Offset < edits[j].Offset })

	if len(edits) == 0 && b.shift == 0 {
		return Instruction{}, false
	}
	if len(edits) == 0 {
		edits = nil
	}
	return Instruction{Kind: InsCellOp, Edits: edits, Shift: b.shift}, true
}

// Program is an immutable list of instructions. Copying a Program is cheap
// and rewrites always produce a new backing slice, so unchanged loop bodies
// are shared between revisions.
type Program struct {
	ins []Instruction
}

// NewProgram copies ins into a new Program.
func NewProgram(ins ...Instruction) Program {
	if len(ins) == 0 {
		return Program{}
	}
	owned := make([]Instruction, len(ins))
	copy(owned, ins)
	return Program{ins: owned}
}

// LenFlat is the number of instructions at this level only.
func (p Program) LenFlat() int {
	return len(p.ins)
}

// Len is the recursive instruction count; each loop counts as one plus its
// body.
func (p Program) Len() int {
	n := 0
	stack := []Program{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n += len(cur.ins)
		for _, ins := range cur.ins {
			if ins.Kind == InsLoop {
				stack = append(stack, ins.Body)
			}
		}
	}
	return n
}

func (p Program) At(i int) Instruction {
	return p.ins[i]
}

// Instructions returns a copy of the top level instruction list.
func (p Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.ins))
	copy(out, p.ins)
	return out
}

// Depth is the deepest loop nesting level; a program without loops is 0.
func (p Program) Depth() int {
	type level struct {
		prog  Program
		depth int
	}
	deepest := 0
	stack := []level{{p, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.depth > deepest {
			deepest = cur.depth
		}
		for _, ins := range cur.prog.ins {
			if ins.Kind == InsLoop {
				stack = append(stack, level{ins.Body, cur.depth + 1})
			}
		}
	}
	return deepest
}

// LargestSubscope returns the scope, p included, with the most top level
// instructions.
func (p Program) LargestSubscope() Program {
	largest := p
	stack := []Program{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.LenFlat() > largest.LenFlat() {
			largest = cur
		}
		for _, ins := range cur.ins {
			if ins.Kind == InsLoop {
				stack = append(stack, ins.Body)
			}
		}
	}
	return largest
}

func (p Program) Equal(other Program) bool {
	if len(p.ins) != len(other.ins) {
		return false
	}
	for i := range p.ins {
		if !p.ins[i].Equal(other.ins[i]) {
			return false
		}
	}
	return true
}

// splice returns a new Program with ins[i:i+count] replaced by repl.
func (p Program) splice(i, count int, repl []Instruction) Program {
	out := make([]Instruction, 0, len(p.ins)-count+len(repl))
	out = append(out, p.ins[:i]...)
	out = append(out, repl...)
	out = append(out, p.ins[i+count:]...)
	return Program{ins: out}
}

// with returns a new Program with the instruction at i replaced.
func (p Program) with(i int, ins Instruction) Program {
	out := make([]Instruction, len(p.ins))
	copy(out, p.ins)
	out[i] = ins
	return Program{ins: out}
}

// sharesBody reports whether two programs use the same backing array, which
// is how rewrites signal that a subtree was left untouched.
func (p Program) sharesBody(other Program) bool {
	if len(p.ins) != len(other.ins) {
		return false
	}
	if len(p.ins) == 0 {
		return true
	}
	return &p.ins[0] == &other.ins[0]
}
