package brainfuck

// Frame is one level of program nesting being executed.
type Frame struct {
	Program            Program
	InstructionPointer int
}

// Tape tracks where execution is. The bottom frame is the whole program and
// each entered loop body pushes another, so nesting depth never touches the
// Go stack.
type Tape struct {
	Program Program
	Frames  []Frame
}

const FRAME_STACK_CAP = 16

func NewTape(p Program) *Tape {
	t := &Tape{Program: p, Frames: make([]Frame, 0, FRAME_STACK_CAP)}
	t.Reset()
	return t
}

func (t *Tape) Reset() {
	t.Frames = append(t.Frames[:0], Frame{Program: t.Program})
}

// Current returns the innermost frame.
func (t *Tape) Current() *Frame {
	return &t.Frames[len(t.Frames)-1]
}

// GetCurrentInstruction returns the instruction under the innermost frame's
// pointer, or false when that frame has run off its end.
func (t *Tape) GetCurrentInstruction() (bool, Instruction) {
	f := t.Current()
	if f.InstructionPointer >= f.Program.LenFlat() {
		return false, Instruction{}
	}
	return true, f.Program.At(f.InstructionPointer)
}

func (t *Tape) Advance() {
	t.Current().InstructionPointer++
}

// PushLoop enters body. The parent frame keeps pointing at the loop so the
// condition is retested when the body finishes.
func (t *Tape) PushLoop(body Program) {
	t.Frames = append(t.Frames, Frame{Program: body})
}

// PopLoop leaves the innermost loop body. It returns false at the top level,
// which means the program is done.
func (t *Tape) PopLoop() bool {
	if len(t.Frames) <= 1 {
		return false
	}
	t.Frames = t.Frames[:len(t.Frames)-1]
	return true
}

func (t *Tape) Depth() int {
	return len(t.Frames) - 1
}
