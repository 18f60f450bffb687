package brainfuck

import (
	"fmt"
	"strings"
)

func (o Operation) String() string {
	if o.Kind == OpSet {
		return fmt.Sprintf("=%d", o.Value)
	}
	if d := o.Delta(); d < 0 {
		return fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("+%d", o.Value)
}

// String renders a single instruction on one line. Loop bodies are not
// included; see Program.Render.
func (ins Instruction) String() string {
	switch ins.Kind {
	case InsCellOp:
		var sb strings.Builder
		sb.WriteString("cell [")
		for i, e := range ins.Edits {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%d:%s", e.Offset, e.Op)
		}
		sb.WriteString("]")
		if ins.Shift != 0 {
			fmt.Fprintf(&sb, " >%d", ins.Shift)
		}
		return sb.String()
	case InsRead:
		return "read"
	case InsWrite:
		return "write"
	case InsLoop:
		return "loop"
	}
	return fmt.Sprintf("unknown(%d)", ins.Kind)
}

func (p Program) String() string {
	return p.Render(2)
}

// Render dumps p one instruction per line, loop bodies indented by width
// spaces per level. The format is for humans and may change.
func (p Program) Render(width int) string {
	type frame struct {
		prog Program
		i    int
	}

	var lines []string
	stack := []*frame{{prog: p}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.i >= f.prog.LenFlat() {
			stack = stack[:len(stack)-1]
			continue
		}
		ins := f.prog.At(f.i)
		f.i++
		lines = append(lines, strings.Repeat(" ", width*(len(stack)-1))+ins.String())
		if ins.Kind == InsLoop {
			stack = append(stack, &frame{prog: ins.Body})
		}
	}
	return strings.Join(lines, "\n")
}

// String returns the significant ops of s with comments stripped and loops
// closed.
func (s Scope) String() string {
	type frame struct {
		scope Scope
		i     int
	}

	var sb strings.Builder
	stack := []*frame{{scope: s}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.i >= len(f.scope) {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				sb.WriteByte(byte(OP_WHILE_END))
			}
			continue
		}
		tok := f.scope[f.i]
		f.i++
		sb.WriteByte(byte(tok.Op))
		if tok.Op == OP_WHILE {
			stack = append(stack, &frame{scope: tok.Body})
		}
	}
	return sb.String()
}
