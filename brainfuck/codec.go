package brainfuck

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Programs are persisted in the run store as
// CBOR. The tree is flattened in pre-order, each loop carrying the number of
// instructions directly in its body, so decoding never nests deeper than one
// array regardless of loop depth.

type wireEdit struct {
	Offset int   `cbor:"o"`
	Kind   uint8 `cbor:"k"`
	Value  uint8 `cbor:"v"`
}

type wireInstruction struct {
	Kind     uint8      `cbor:"k"`
	Edits    []wireEdit `cbor:"e,omitempty"`
	Shift    int        `cbor:"s,omitempty"`
	Children int        `cbor:"c,omitempty"`
}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("brainfuck: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	// Flattened programs are one array entry per instruction.
	dm, err := cbor.DecOptions{MaxArrayElements: math.MaxInt32}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("brainfuck: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

func MarshalProgram(p Program) ([]byte, error) {
	type frame struct {
		prog Program
		i    int
	}

	wire := make([]wireInstruction, 0, p.Len())
	stack := []*frame{{prog: p}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.i >= f.prog.LenFlat() {
			stack = stack[:len(stack)-1]
			continue
		}
		ins := f.prog.At(f.i)
		f.i++

		w := wireInstruction{Kind: uint8(ins.Kind), Shift: ins.Shift}
		for _, e := range ins.Edits {
			w.Edits = append(w.Edits, wireEdit{Offset: e.Offset, Kind: uint8(e.Op.Kind), Value: e.Op.Value})
		}
		if ins.Kind == InsLoop {
			w.Children = ins.Body.LenFlat()
			stack = append(stack, &frame{prog: ins.Body})
		}
		wire = append(wire, w)
	}
	return cborEncMode.Marshal(wire)
}

func UnmarshalProgram(data []byte) (Program, error) {
	var wire []wireInstruction
	if err := cborDecMode.Unmarshal(data, &wire); err != nil {
		return Program{}, fmt.Errorf("brainfuck: unmarshal program: %w", err)
	}

	type frame struct {
		out       []Instruction
		remaining int
	}

	// The root frame has no expected length.
	stack := []*frame{{remaining: -1}}
	emit := func(ins Instruction) {
		top := stack[len(stack)-1]
		top.out = append(top.out, ins)
		top.remaining--
		for len(stack) > 1 && stack[len(stack)-1].remaining == 0 {
			body := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.out = append(parent.out, LoopOf(NewProgram(body.out...)))
			parent.remaining--
		}
	}

	for n, w := range wire {
		switch Kind(w.Kind) {
		case InsCellOp:
			edits := make([]Edit, 0, len(w.Edits))
			for _, e := range w.Edits {
				if OpKind(e.Kind) != OpAdd && OpKind(e.Kind) != OpSet {
					return Program{}, fmt.Errorf("brainfuck: unmarshal program: instruction [%d] has unknown operation kind [%d]", n, e.Kind)
				}
				edits = append(edits, Edit{Offset: e.Offset, Op: Operation{Kind: OpKind(e.Kind), Value: e.Value}})
			}
			if ins, ok := NewCellOp(edits, w.Shift); ok {
				emit(ins)
			} else {
				return Program{}, fmt.Errorf("brainfuck: unmarshal program: instruction [%d] is an empty cell op", n)
			}
		case InsRead:
			emit(ReadInstruction)
		case InsWrite:
			emit(WriteInstruction)
		case InsLoop:
			if w.Children < 0 {
				return Program{}, fmt.Errorf("brainfuck: unmarshal program: loop [%d] has negative length [%d]", n, w.Children)
			}
			if w.Children == 0 {
				emit(LoopOf(Program{}))
			} else {
				stack = append(stack, &frame{remaining: w.Children})
			}
		default:
			return Program{}, fmt.Errorf("brainfuck: unmarshal program: instruction [%d] has unknown kind [%d]", n, w.Kind)
		}
	}

	if len(stack) != 1 {
		return Program{}, fmt.Errorf("brainfuck: unmarshal program: truncated, [%d] loops left open", len(stack)-1)
	}
	return NewProgram(stack[0].out...), nil
}
