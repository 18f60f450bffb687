package brainfuck

import (
	"math/rand"
	"testing"
)

func TestOperationThen(t *testing.T) {
	cases := []struct {
		first, second, expected Operation
	}{
		{Add(3), Add(4), Add(7)},
		{Add(127), Add(1), Add(-128)},
		{Add(-1), Add(1), Add(0)},
		{Add(5), Set(9), Set(9)},
		{Set(9), Add(5), Set(14)},
		{Set(250), Add(10), Set(4)},
		{Set(1), Add(-2), Set(255)},
		{Set(1), Set(2), Set(2)},
	}

	for _, c := range cases {
		if got := c.first.Then(c.second); got != c.expected {
			t.Errorf("%v then %v gave [%v], expected [%v]", c.first, c.second, got, c.expected)
		}
	}
}

func TestOperationThenMatchesApply(t *testing.T) {
	ops := []Operation{Add(0), Add(1), Add(-1), Add(127), Add(-128), Set(0), Set(7), Set(255)}
	for _, a := range ops {
		for _, b := range ops {
			for cell := 0; cell < 256; cell++ {
				seq := b.Apply(a.Apply(uint8(cell)))
				if got := a.Then(b).Apply(uint8(cell)); got != seq {
					t.Fatalf("%v then %v on [%d]: composed gave [%d], sequential gave [%d]", a, b, cell, got, seq)
				}
			}
		}
	}
}

func TestNewCellOpNormalizes(t *testing.T) {
	ins, ok := NewCellOp([]Edit{{3, Add(1)}, {-1, Set(2)}, {3, Add(2)}, {5, Add(0)}}, 0)
	if !ok {
		t.Fatalf("NewCellOp unexpectedly reported a no-op")
	}
	expected := []Edit{{-1, Set(2)}, {3, Add(3)}}
	if len(ins.Edits) != len(expected) {
		t.Fatalf("Edits [%v] are not [%v]", ins.Edits, expected)
	}
	for i := range expected {
		if ins.Edits[i] != expected[i] {
			t.Errorf("Edit [%d] is [%v], expected [%v]", i, ins.Edits[i], expected[i])
		}
	}
	if op, ok := ins.EditAt(3); !ok || op != Add(3) {
		t.Errorf("EditAt(3) gave [%v, %v]", op, ok)
	}
	if _, ok := ins.EditAt(5); ok {
		t.Errorf("EditAt(5) found an identity edit that should have been pruned")
	}

	if _, ok := NewCellOp(nil, 0); ok {
		t.Errorf("An empty, unshifted cell op was materialized")
	}
	if _, ok := NewCellOp([]Edit{{0, Add(1)}, {0, Add(-1)}}, 0); ok {
		t.Errorf("A cell op that nets out to nothing was materialized")
	}
}

func randomCellOp(r *rand.Rand) Instruction {
	for {
		var edits []Edit
		for n := r.Intn(4); n > 0; n-- {
			var op Operation
			if r.Intn(3) == 0 {
				op = Set(uint8(r.Intn(256)))
			} else {
				op = Add(int8(r.Intn(256) - 128))
			}
			edits = append(edits, Edit{Offset: r.Intn(9) - 4, Op: op})
		}
		if ins, ok := NewCellOp(edits, r.Intn(7)-3); ok {
			return ins
		}
	}
}

func TestMergeMatchesSequentialExecution(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 2000; trial++ {
		a, b := randomCellOp(r), randomCellOp(r)

		seq := NewMemory(64)
		merged := NewMemory(64)
		for i := range seq.Cells {
			seq.Cells[i] = uint8(r.Intn(256))
		}
		copy(merged.Cells, seq.Cells)
		start := uint(r.Intn(64))
		seq.MemoryPointer, merged.MemoryPointer = start, start

		seq.ApplyCellOp(a)
		seq.ApplyCellOp(b)
		if m, ok := Merge(a, b); ok {
			merged.ApplyCellOp(m)
		}

		if seq.MemoryPointer != merged.MemoryPointer {
			t.Fatalf("Merging %v and %v: pointer [%d] differs from sequential [%d]", a, b, merged.MemoryPointer, seq.MemoryPointer)
		}
		for i := range seq.Cells {
			if seq.Cells[i] != merged.Cells[i] {
				t.Fatalf("Merging %v and %v: cell [%d] is [%d], sequential gave [%d]", a, b, i, merged.Cells[i], seq.Cells[i])
			}
		}
	}
}

func TestMergeShiftsSecondOffsets(t *testing.T) {
	a := cellOp(t, 2, Edit{0, Add(1)})
	b := cellOp(t, -1, Edit{0, Set(4)}, Edit{-2, Add(1)})
	m, ok := Merge(a, b)
	if !ok {
		t.Fatalf("Merge unexpectedly produced a no-op")
	}
	expected := cellOp(t, 1, Edit{0, Add(2)}, Edit{2, Set(4)})
	if !m.Equal(expected) {
		t.Errorf("Merge gave [%v], expected [%v]", m, expected)
	}
}

func TestProgramSizes(t *testing.T) {
	p := mustCompile(t, "+[>[-]<-]>[[[.]]]")
	if p.LenFlat() != 4 {
		t.Errorf("LenFlat [%d] is not 4", p.LenFlat())
	}
	if p.Len() != 11 {
		t.Errorf("Len [%d] is not 11", p.Len())
	}
	if p.Depth() != 3 {
		t.Errorf("Depth [%d] is not 3", p.Depth())
	}
	if largest := p.LargestSubscope(); largest.LenFlat() != 4 {
		t.Errorf("Largest subscope has [%d] instructions, expected the top level's 4", largest.LenFlat())
	}
}

func TestProgramCopyIsShallow(t *testing.T) {
	p := mustCompile(t, "+[-]")
	q := p
	if !q.sharesBody(p) {
		t.Errorf("Copying a Program duplicated its instructions")
	}
	ins := p.Instructions()
	ins[0] = WriteInstruction
	if p.At(0).Kind != InsCellOp {
		t.Errorf("Modifying the result of Instructions() changed the program")
	}
}
