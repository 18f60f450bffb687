package brainfuck

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Pass is a local rewrite rule over a window of consecutive instructions.
// The set is closed, so dispatch is a switch rather than an interface.
type Pass uint8

const (
	// PassAdjacentMerge folds two neighbouring CellOps into one.
	PassAdjacentMerge Pass = iota + 1
	// PassZeroingLoop replaces a loop that only adds an odd delta to the
	// current cell with an explicit Set(0).
	PassZeroingLoop
)

func (p Pass) String() string {
	switch p {
	case PassAdjacentMerge:
		return "AdjacentMerge"
	case PassZeroingLoop:
		return "ZeroingLoopReduction"
	}
	return fmt.Sprintf("Pass(%d)", uint8(p))
}

// MinTokens is the shortest window Apply will ever be handed. A loop counts
// as one instruction.
func (p Pass) MinTokens() int {
	switch p {
	case PassAdjacentMerge:
		return 2
	}
	return 1
}

// Replacement asks the engine to swap the first Count instructions of the
// window for New.
type Replacement struct {
	Count int
	New   []Instruction
}

// Apply runs the rule against window. It never modifies window.
func (p Pass) Apply(window []Instruction) (Replacement, bool) {
	if len(window) < p.MinTokens() {
		return Replacement{}, false
	}
	switch p {
	case PassAdjacentMerge:
		return adjacentMerge(window)
	case PassZeroingLoop:
		return zeroingLoop(window)
	}
	panic(fmt.Sprintf("Unknown pass [%d] encountered!", uint8(p)))
}

func adjacentMerge(window []Instruction) (Replacement, bool) {
	if window[0].Kind != InsCellOp || window[1].Kind != InsCellOp {
		return Replacement{}, false
	}
	if merged, ok := Merge(window[0], window[1]); ok {
		return Replacement{Count: 2, New: []Instruction{merged}}, true
	}
	return Replacement{Count: 2}, true
}

var zeroCell = Instruction{Kind: InsCellOp, Edits: []Edit{{Offset: 0, Op: Set(0)}}}

func zeroingLoop(window []Instruction) (Replacement, bool) {
	if window[0].Kind != InsLoop || window[0].Body.LenFlat() != 1 {
		return Replacement{}, false
	}
	body := window[0].Body.At(0)
	if body.Kind != InsCellOp || body.Shift != 0 || len(body.Edits) != 1 {
		return Replacement{}, false
	}
	e := body.Edits[0]
	if e.Offset != 0 || e.Op.Kind != OpAdd {
		return Replacement{}, false
	}
	// Repeatedly adding d mod 256 reaches zero from every start value only
	// when d is coprime with 256, i.e. odd.
	if e.Op.Value&1 == 0 {
		return Replacement{}, false
	}
	return Replacement{Count: 1, New: []Instruction{zeroCell}}, true
}

// PassError reports a pass that asked to replace more instructions than its
// window held.
type PassError struct {
	Pass   Pass
	Index  int
	Count  int
	Window int
	Depth  int
}

func (e *PassError) Error() string {
	return fmt.Sprintf("Pass [%s] at instruction index [%d] (loop depth [%d]) asked to replace [%d] instructions but only [%d] remain", e.Pass, e.Index, e.Depth, e.Count, e.Window)
}

// ApplyPass runs pass over every window of prog, left to right. At each
// index the pass is reapplied until it stops matching, then a loop found at
// that index has its body rewritten the same way. Loop bodies are handled on
// an explicit stack. Untouched bodies are shared with prog.
func ApplyPass(prog Program, pass Pass) (Program, error) {
	return applyRule(prog, rule{pass: pass, minTokens: pass.MinTokens(), apply: pass.Apply})
}

type rule struct {
	pass      Pass
	minTokens int
	apply     func([]Instruction) (Replacement, bool)
}

func applyRule(prog Program, r rule) (Program, error) {
	type frame struct {
		prog Program
		i    int
	}

	stack := []*frame{{prog: prog}}
	for {
		f := stack[len(stack)-1]

		if f.i >= f.prog.LenFlat() {
			if len(stack) == 1 {
				return f.prog, nil
			}
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			if !parent.prog.At(parent.i).Body.sharesBody(f.prog) {
				parent.prog = parent.prog.with(parent.i, LoopOf(f.prog))
			}
			parent.i++
			continue
		}

		for {
			remaining := f.prog.LenFlat() - f.i
			if remaining < r.minTokens {
				break
			}
			repl, ok := r.apply(f.prog.ins[f.i:])
			if !ok {
				break
			}
			if repl.Count > remaining {
				return Program{}, &PassError{Pass: r.pass, Index: f.i, Count: repl.Count, Window: remaining, Depth: len(stack) - 1}
			}
			f.prog = f.prog.splice(f.i, repl.Count, repl.New)
		}

		if f.i < f.prog.LenFlat() && f.prog.At(f.i).Kind == InsLoop {
			stack = append(stack, &frame{prog: f.prog.At(f.i).Body})
			continue
		}
		f.i++
	}
}

// PassStats records one pass of a pipeline run.
type PassStats struct {
	Pass      Pass
	Elapsed   time.Duration
	LenBefore int
	LenAfter  int
}

// DefaultPasses is merge, zeroing-loop reduction, then merge again so the
// new Set(0) nodes fold into their neighbours.
func DefaultPasses() []Pass {
	return []Pass{PassAdjacentMerge, PassZeroingLoop, PassAdjacentMerge}
}

// Pipeline drives a list of passes one at a time so each intermediate
// program can be inspected.
type Pipeline struct {
	Passes []Pass
	Stats  []PassStats
	next   int
}

func NewPipeline(passes ...Pass) *Pipeline {
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	return &Pipeline{Passes: passes}
}

// ApplyNext runs the next pass on prog. It returns false once every pass has
// run.
func (pl *Pipeline) ApplyNext(prog Program) (Program, bool, error) {
	if pl.next >= len(pl.Passes) {
		return prog, false, nil
	}
	pass := pl.Passes[pl.next]
	pl.next++

	start := time.Now()
	out, err := ApplyPass(prog, pass)
	if err != nil {
		return prog, true, err
	}
	stats := PassStats{
		Pass:      pass,
		Elapsed:   time.Since(start),
		LenBefore: prog.Len(),
		LenAfter:  out.Len(),
	}
	pl.Stats = append(pl.Stats, stats)
	log.WithFields(log.Fields{
		"pass":    pass.String(),
		"elapsed": stats.Elapsed,
		"before":  stats.LenBefore,
		"after":   stats.LenAfter,
	}).Debug("Applied peephole pass")

	return out, true, nil
}

// Run applies every remaining pass.
func (pl *Pipeline) Run(prog Program) (Program, error) {
	for {
		out, more, err := pl.ApplyNext(prog)
		if err != nil {
			return prog, err
		}
		if !more {
			return out, nil
		}
		prog = out
	}
}

func (pl *Pipeline) Reset() {
	pl.next = 0
	pl.Stats = nil
}

// Optimize runs the default pipeline over prog.
func Optimize(prog Program) (Program, error) {
	return NewPipeline().Run(prog)
}
