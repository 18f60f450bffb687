package brainfuck

// Fuse folds runs of + - < > in s into CellOps. Reads, writes and loops end
// the current run; a run that nets out to nothing is dropped. Loop bodies are
// fused independently, nothing is ever merged across a loop boundary.
func Fuse(s Scope) Program {
	type frame struct {
		src Scope
		pos int
		out []Instruction
		run *cellOpBuilder
	}

	flush := func(f *frame) {
		if f.run.empty() {
			return
		}
		if ins, ok := f.run.build(); ok {
			f.out = append(f.out, ins)
		}
		f.run.reset()
	}

	stack := []*frame{{src: s, run: newCellOpBuilder()}}
	for {
		f := stack[len(stack)-1]

		if f.pos >= len(f.src) {
			flush(f)
			body := NewProgram(f.out...)
			if len(stack) == 1 {
				return body
			}
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.out = append(parent.out, LoopOf(body))
			parent.pos++
			continue
		}

		tok := f.src[f.pos]
		switch tok.Op {
		case OP_INC:
			f.run.apply(f.run.shift, Add(1))
		case OP_DEC:
			f.run.apply(f.run.shift, Add(-1))
		case OP_POINTER_RIGHT:
			f.run.shift++
		case OP_POINTER_LEFT:
			f.run.shift--
		case OP_READ:
			flush(f)
			f.out = append(f.out, ReadInstruction)
		case OP_WRITE:
			flush(f)
			f.out = append(f.out, WriteInstruction)
		case OP_WHILE:
			flush(f)
			stack = append(stack, &frame{src: tok.Body, run: newCellOpBuilder()})
			// The parent advances once the body frame is closed.
			continue
		}
		f.pos++
	}
}
