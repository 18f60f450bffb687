package brainfuck

// The OPs for Brainfuck. These are the raw, one-per-character tokens the
// parser produces. Anything that isn't one of the eight below is a comment.
// The fuser turns a Scope of these into a Program (see ir.go).

type OP byte
type OPS string

const (
	OP_POINTER_LEFT  = OP('<')
	OP_POINTER_RIGHT = OP('>')
	OP_INC           = OP('+')
	OP_DEC           = OP('-')
	OP_READ          = OP(',')
	OP_WRITE         = OP('.')
	OP_WHILE         = OP('[')
	OP_WHILE_END     = OP(']')
)

// Some well known idioms, handy for tests and for poking at the optimizer.
const (
	SET_TO_ZERO     = OPS(`[-]`)
	SET_TO_ZERO_INC = OPS(`[+]`)
	FIND_ZERO_RIGHT = OPS(`[>]`)
	FIND_ZERO_LEFT  = OPS(`[<]`)
	MOVE_RIGHT      = OPS(`[->+<]`)
	MOVE_LEFT       = OPS(`[-<+>]`)
	ECHO            = OPS(`,[.,]`)
)

var OP_SET [8]OP = [...]OP{
	OP_POINTER_LEFT,
	OP_POINTER_RIGHT,
	OP_INC,
	OP_DEC,
	OP_READ,
	OP_WRITE,
	OP_WHILE,
	OP_WHILE_END,
}

var PREFAB_OPSETS [7]OPS = [...]OPS{
	SET_TO_ZERO,
	SET_TO_ZERO_INC,
	FIND_ZERO_RIGHT,
	FIND_ZERO_LEFT,
	MOVE_RIGHT,
	MOVE_LEFT,
	ECHO,
}

// Significant reports whether o is one of the eight BF characters.
func (o OP) Significant() bool {
	for _, s := range OP_SET {
		if o == s {
			return true
		}
	}
	return false
}

func (o OP) String() string {
	return string(rune(o))
}

// ToOPs returns the significant characters of o, comments dropped.
func (o OPS) ToOPs() []OP {
	ops := []OP{}
	for i := 0; i < len(o); i++ {
		if op := OP(o[i]); op.Significant() {
			ops = append(ops, op)
		}
	}
	return ops
}

// Token is one raw operation. Body is only set for OP_WHILE and holds the
// loop contents; the closing bracket is never stored.
type Token struct {
	Op   OP
	Body Scope
}

// Scope is an ordered list of raw tokens.
type Scope []Token

// Len is the recursive token count, each loop counting as one plus its body.
func (s Scope) Len() int {
	n := 0
	stack := []Scope{s}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n += len(cur)
		for _, tok := range cur {
			if tok.Op == OP_WHILE {
				stack = append(stack, tok.Body)
			}
		}
	}
	return n
}
